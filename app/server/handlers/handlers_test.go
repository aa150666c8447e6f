package handlers

import (
	"context"
	"encoding/json"
	"ihfiction/app/server/middlewares"
	"ihfiction/app/server/models"
	"ihfiction/app/server/oidc"
	"ihfiction/app/server/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// noopRoleAssigner 测试里不关心角色下发
type noopRoleAssigner struct{}

func (noopRoleAssigner) AssignRealmRole(_ context.Context, _ string, _ string) error {
	return nil
}

// newTestApp 内存 sqlite ；正文存储不参与（ mdb 为 nil ），
// redis 指向不可达地址，缓存路径按失败降级处理
func newTestApp(t *testing.T) (*App, *echo.Echo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Author{},
		&models.Profile{},
		&models.Story{},
		&models.Book{},
		&models.Chapter{},
		&models.Tag{},
	))

	l := zap.NewNop()
	users := services.NewUsers(l, db, noopRoleAssigner{})
	loader := services.NewLoader(db)
	auth := services.NewAuthorization(l, loader, users)

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	app := NewApp(l, db, nil, rdb, auth, loader, users)

	e := echo.New()
	e.Validator = NewValidator()
	return app, e, db
}

func seedAuthor(t *testing.T, db *gorm.DB, subject string, name string) *models.Author {
	t.Helper()

	user := models.User{Subject: subject, Name: name}
	require.NoError(t, db.Create(&user).Error)

	author := models.Author{Base: models.Base{ID: user.ID}, Name: name}
	require.NoError(t, db.Create(&author).Error)

	return &author
}

// newRequestContext 带可选身份的 echo context
func newRequestContext(e *echo.Echo, method string, target string, body string, principal *oidc.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(middlewares.ContextKeyPrincipal, principal)
	}
	return c, rec
}

func TestTagCreateAndList(t *testing.T) {
	app, e, db := newTestApp(t)
	seedAuthor(t, db, "sub-1", "amy")
	principal := &oidc.Principal{Subject: "sub-1", Name: "amy"}

	c, rec := newRequestContext(e, http.MethodPost, "/tags", `{"category":"Genre","value":"Fantasy"}`, principal)
	require.NoError(t, app.TagCreate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created TagResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	// 分类与值统一小写
	assert.Equal(t, "genre", created.Category)
	assert.Equal(t, "fantasy", created.Value)

	// 重复创建返回同一条
	c, rec = newRequestContext(e, http.MethodPost, "/tags", `{"category":"genre","value":"fantasy"}`, principal)
	require.NoError(t, app.TagCreate(c))
	var again TagResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, created.ID, again.ID)

	c, rec = newRequestContext(e, http.MethodGet, "/tags?category=genre", "", nil)
	require.NoError(t, app.TagList(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var tags []TagResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "fantasy", tags[0].Value)
}

func TestTagCreate_RequiresAuthor(t *testing.T) {
	app, e, _ := newTestApp(t)

	// 登录但不是作者
	c, rec := newRequestContext(e, http.MethodPost, "/tags", `{"category":"genre","value":"fantasy"}`, &oidc.Principal{Subject: "sub-x"})
	require.NoError(t, app.TagCreate(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func seedStory(t *testing.T, db *gorm.DB, owner *models.Author, title string, published bool) *models.Story {
	t.Helper()

	story := models.Story{
		Title:   title,
		OwnerID: owner.ID,
		Authors: []models.Author{*owner},
	}
	if published {
		now := time.Now()
		story.PublishedAt = &now
	}
	require.NoError(t, db.Create(&story).Error)
	return &story
}

func TestStoryList_AnonymousSeesOnlyPublished(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	seedStory(t, db, owner, "published story", true)
	seedStory(t, db, owner, "draft story", false)

	c, rec := newRequestContext(e, http.MethodGet, "/stories", "", nil)
	require.NoError(t, app.StoryList(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Items      []map[string]any `json:"items"`
		TotalCount int64            `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "published story", res.Items[0]["title"])
	assert.Contains(t, res.Items[0], "links")
}

func TestStoryList_DraftsRequireAuthor(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	seedStory(t, db, owner, "draft story", false)

	// 作者的草稿箱
	c, rec := newRequestContext(e, http.MethodGet, "/stories?drafts=true", "", &oidc.Principal{Subject: "sub-1"})
	require.NoError(t, app.StoryList(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)

	// 非作者不能看草稿箱
	c, rec = newRequestContext(e, http.MethodGet, "/stories?drafts=true", "", &oidc.Principal{Subject: "sub-other"})
	require.NoError(t, app.StoryList(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStoryGet_SparseFields(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	story := seedStory(t, db, owner, "published story", true)

	c, rec := newRequestContext(e, http.MethodGet, "/stories/"+story.ID+"?fields=id,title", "", nil)
	c.SetPath("/stories/:id")
	c.SetParamNames("id")
	c.SetParamValues(story.ID)
	require.NoError(t, app.StoryGet(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var shaped map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shaped))
	assert.Equal(t, story.ID, shaped["id"])
	assert.Equal(t, "published story", shaped["title"])
	assert.Contains(t, shaped, "links")
	assert.NotContains(t, shaped, "description")
}

func TestStoryGet_UnknownField(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	story := seedStory(t, db, owner, "published story", true)

	c, rec := newRequestContext(e, http.MethodGet, "/stories/"+story.ID+"?fields=bogus", "", nil)
	c.SetPath("/stories/:id")
	c.SetParamNames("id")
	c.SetParamValues(story.ID)
	require.NoError(t, app.StoryGet(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoryCreate(t *testing.T) {
	app, e, db := newTestApp(t)
	seedAuthor(t, db, "sub-1", "amy")

	c, rec := newRequestContext(e, http.MethodPost, "/stories", `{"title":"a new story","description":"blurb"}`, &oidc.Principal{Subject: "sub-1"})
	require.NoError(t, app.StoryCreate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "a new story", res["title"])
	// 新故事是草稿
	assert.Nil(t, res["publishedAt"])

	var count int64
	require.NoError(t, db.Model(&models.Story{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStoryCreate_TitleRequired(t *testing.T) {
	app, e, db := newTestApp(t)
	seedAuthor(t, db, "sub-1", "amy")

	c, rec := newRequestContext(e, http.MethodPost, "/stories", `{"description":"no title"}`, &oidc.Principal{Subject: "sub-1"})
	require.NoError(t, app.StoryCreate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoryPublishLifecycle(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	story := seedStory(t, db, owner, "draft story", false)
	principal := &oidc.Principal{Subject: "sub-1"}

	publish := func() *httptest.ResponseRecorder {
		c, rec := newRequestContext(e, http.MethodPost, "/stories/"+story.ID+"/publish", "", principal)
		c.SetPath("/stories/:id/publish")
		c.SetParamNames("id")
		c.SetParamValues(story.ID)
		require.NoError(t, app.StoryPublish(c))
		return rec
	}

	require.Equal(t, http.StatusOK, publish().Code)

	var loaded models.Story
	require.NoError(t, db.First(&loaded, "id = ?", story.ID).Error)
	require.NotNil(t, loaded.PublishedAt)

	// 重复发布冲突
	assert.Equal(t, http.StatusConflict, publish().Code)

	c, rec := newRequestContext(e, http.MethodDelete, "/stories/"+story.ID+"/publish", "", principal)
	c.SetPath("/stories/:id/publish")
	c.SetParamNames("id")
	c.SetParamValues(story.ID)
	require.NoError(t, app.StoryUnpublish(c))
	require.Equal(t, http.StatusOK, rec.Code)

	loaded = models.Story{}
	require.NoError(t, db.First(&loaded, "id = ?", story.ID).Error)
	assert.Nil(t, loaded.PublishedAt)
}

func TestStoryChapterCreate_ConvertsSingleBodyStory(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	story := seedStory(t, db, owner, "a single body story", false)

	// 单体故事：正文挂在故事本体上
	const bodyID = "507f1f77bcf86cd799439011"
	require.NoError(t, db.Model(story).Update("work_body_id", bodyID).Error)

	c, rec := newRequestContext(e, http.MethodPost, "/stories/"+story.ID+"/chapters", `{"title":"second chapter"}`, &oidc.Principal{Subject: "sub-1"})
	c.SetPath("/stories/:id/chapters")
	c.SetParamNames("id")
	c.SetParamValues(story.ID)
	require.NoError(t, app.StoryChapterCreate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// 原正文下沉为第一章，归属故事拥有者
	var chapters []models.Chapter
	require.NoError(t, db.Where("story_id = ?", story.ID).Order("sort_order ASC").Find(&chapters).Error)
	require.Len(t, chapters, 2)

	first := chapters[0]
	assert.Equal(t, "a single body story", first.Title)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, owner.ID, first.OwnerID)
	assert.Equal(t, bodyID, first.WorkBodyID)

	second := chapters[1]
	assert.Equal(t, "second chapter", second.Title)
	assert.Equal(t, 2, second.Order)
	assert.Empty(t, second.WorkBodyID)

	// 故事本体不再引用正文
	var loaded models.Story
	require.NoError(t, db.First(&loaded, "id = ?", story.ID).Error)
	assert.Empty(t, loaded.WorkBodyID)
}

func TestStoryChapterCreate_NoConversionWhenAlreadyChaptered(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	story := seedStory(t, db, owner, "chaptered story", false)

	existing := models.Chapter{Title: "chapter one", StoryID: story.ID, OwnerID: owner.ID, Order: 1}
	require.NoError(t, db.Create(&existing).Error)

	c, rec := newRequestContext(e, http.MethodPost, "/stories/"+story.ID+"/chapters", `{"title":"chapter two"}`, &oidc.Principal{Subject: "sub-1"})
	c.SetPath("/stories/:id/chapters")
	c.SetParamNames("id")
	c.SetParamValues(story.ID)
	require.NoError(t, app.StoryChapterCreate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.Chapter{}).Where("story_id = ?", story.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestBookDelete_DetachesChapters(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	story := seedStory(t, db, owner, "long story", false)

	book := models.Book{Title: "volume one", StoryID: story.ID, Order: 1}
	require.NoError(t, db.Create(&book).Error)

	chapter := models.Chapter{Title: "chapter one", StoryID: story.ID, BookID: &book.ID, OwnerID: owner.ID, Order: 1}
	require.NoError(t, db.Create(&chapter).Error)

	c, rec := newRequestContext(e, http.MethodDelete, "/books/"+book.ID, "", &oidc.Principal{Subject: "sub-1"})
	c.SetPath("/books/:id")
	c.SetParamNames("id")
	c.SetParamValues(book.ID)
	require.NoError(t, app.BookDelete(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// 分卷被软删除
	var deleted models.Book
	require.Error(t, db.First(&deleted, "id = ?", book.ID).Error)
	require.NoError(t, db.Unscoped().First(&deleted, "id = ?", book.ID).Error)
	assert.True(t, deleted.DeletedAt.Valid)

	// 卷内章节移回故事根而不是跟着删除
	var detached models.Chapter
	require.NoError(t, db.First(&detached, "id = ?", chapter.ID).Error)
	assert.Nil(t, detached.BookID)
}

func TestStoryUpdate_CollaboratorAllowedStrangerNot(t *testing.T) {
	app, e, db := newTestApp(t)
	owner := seedAuthor(t, db, "sub-1", "amy")
	collaborator := seedAuthor(t, db, "sub-2", "ben")
	seedAuthor(t, db, "sub-3", "eve")

	story := seedStory(t, db, owner, "shared story", false)
	require.NoError(t, db.Model(story).Association("Authors").Append(collaborator))

	update := func(subject string) *httptest.ResponseRecorder {
		c, rec := newRequestContext(e, http.MethodPut, "/stories/"+story.ID, `{"title":"renamed"}`, &oidc.Principal{Subject: subject})
		c.SetPath("/stories/:id")
		c.SetParamNames("id")
		c.SetParamValues(story.ID)
		require.NoError(t, app.StoryUpdate(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, update("sub-2").Code)
	assert.Equal(t, http.StatusForbidden, update("sub-3").Code)
}
