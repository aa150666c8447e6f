package handlers

import (
	"ihfiction/app/server/middlewares"
	"ihfiction/app/server/oidc"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes 三层路由：匿名可读、登录可用、作者专属
func RegisterRoutes(e *echo.Echo, a *App, v *oidc.Verifier) {
	// 公开端点；带 token 会解析身份以便返回未发布内容与权限链接
	public := e.Group("", middlewares.OptionalOIDCAuth(v))
	public.GET("/healthz", a.HealthCheck)
	public.GET("/authors", a.AuthorList)
	public.GET("/authors/:id", a.AuthorGet)
	public.GET("/stories", a.StoryList)
	public.GET("/stories/:id", a.StoryGet)
	public.GET("/stories/:id/content", a.StoryContentGet)
	public.GET("/stories/:id/chapters", a.StoryChapterList)
	public.GET("/stories/:id/books", a.StoryBookList)
	public.GET("/chapters/:id", a.ChapterGet)
	public.GET("/chapters/:id/content", a.ChapterContentGet)
	public.GET("/books/:id", a.BookGet)
	public.GET("/books/:id/chapters", a.BookChapterList)
	public.GET("/tags", a.TagList)

	// 登录用户
	me := e.Group("/me", middlewares.OIDCAuth(v))
	me.GET("", a.MeGet)
	me.POST("/author", a.MeAuthorCreate)
	me.GET("/author", a.MeAuthorGet)
	me.PUT("/author", a.MeAuthorUpdate)

	// 作者专属
	author := e.Group("", middlewares.OIDCAuth(v), middlewares.RequireAuthor())
	author.POST("/stories", a.StoryCreate)
	author.PUT("/stories/:id", a.StoryUpdate)
	author.DELETE("/stories/:id", a.StoryDelete)
	author.PUT("/stories/:id/content", a.StoryContentPut)
	author.PUT("/stories/:id/tags", a.StoryTagsUpdate)
	author.POST("/stories/:id/publish", a.StoryPublish)
	author.DELETE("/stories/:id/publish", a.StoryUnpublish)
	author.POST("/stories/:id/chapters", a.StoryChapterCreate)
	author.POST("/stories/:id/books", a.StoryBookCreate)
	author.PUT("/chapters/:id", a.ChapterUpdate)
	author.DELETE("/chapters/:id", a.ChapterDelete)
	author.PUT("/chapters/:id/content", a.ChapterContentPut)
	author.POST("/chapters/:id/publish", a.ChapterPublish)
	author.DELETE("/chapters/:id/publish", a.ChapterUnpublish)
	author.PUT("/books/:id", a.BookUpdate)
	author.DELETE("/books/:id", a.BookDelete)
	author.POST("/tags", a.TagCreate)
}
