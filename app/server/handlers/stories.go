package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"ihfiction/app/server/constants"
	"ihfiction/app/server/domain"
	"ihfiction/app/server/middlewares"
	"ihfiction/app/server/models"
	"ihfiction/app/server/services"
	"ihfiction/app/server/shaping"
	"ihfiction/app/server/utils"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StoryCreateRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=4000"`
	Content     string   `json:"content"` // 可选的初始正文（单体故事）
	TagIDs      []string `json:"tagIds"`
}

type StoryUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

type StoryTagsUpdateRequest struct {
	TagIDs []string `json:"tagIds" validate:"required"`
}

type ContentUpdateRequest struct {
	Content string `json:"content" validate:"required"`
	Note    string `json:"note" validate:"max=1000"`
}

var storySortFields = map[string]string{
	"title":       "title",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
}

// subjectOf 请求主体的 subject ，匿名时为空
func subjectOf(c echo.Context) string {
	if p := middlewares.Principal(c); p != nil {
		return p.Subject
	}
	return ""
}

// requireAuthor 请求主体必须已经是作者
func (a *App) requireAuthor(c echo.Context) (*models.Author, *domain.Error) {
	principal := middlewares.Principal(c)
	if principal == nil {
		return nil, domain.ErrAuthorRequired
	}

	author, derr := a.users.AuthorBySubject(c.Request().Context(), principal.Subject)
	if derr != nil {
		return nil, derr
	}
	if author == nil {
		return nil, domain.ErrAuthorRequired
	}
	return author, nil
}

// resolveTags 校验标签 ID 全部存在并取回记录
func (a *App) resolveTags(c echo.Context, tagIDs []string) ([]models.Tag, *domain.Error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	var tags []models.Tag
	if err := a.db.WithContext(c.Request().Context()).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, domain.Database("Query", err)
	}
	if len(tags) != len(tagIDs) {
		return nil, domain.Validation("UnknownTag", "one or more tag ids do not exist")
	}
	return tags, nil
}

func (a *App) StoryCreate(c echo.Context) error {
	rctx := c.Request().Context()

	author, derr := a.requireAuthor(c)
	if derr != nil {
		return a.de(c, derr)
	}

	// 绑定请求体
	var req StoryCreateRequest
	if derr = a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	tags, derr := a.resolveTags(c, req.TagIDs)
	if derr != nil {
		return a.de(c, derr)
	}

	story := models.Story{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     author.ID,
		Authors:     []models.Author{*author},
		Tags:        tags,
	}

	// 双写顺序：先写正文再写元数据
	if req.Content != "" {
		bodyID, derr := a.upsertBody(rctx, "", req.Content, "")
		if derr != nil {
			return a.de(c, derr)
		}
		story.WorkBodyID = bodyID
	}

	if err := a.db.WithContext(rctx).Create(&story).Error; err != nil {
		a.l.Error("failed to create story", zap.Error(err))
		return a.de(c, domain.Database("Insert", err))
	}

	perms := domain.ComputeStoryPermissions(true, true)
	return c.JSON(http.StatusCreated, shaping.NewLinked(a.storyResponse(&story, perms), a.links.StoryLinks(&story, perms)))
}

func (a *App) StoryList(c echo.Context) error {
	rctx := c.Request().Context()

	params := parseListParams(c)
	authorID := c.QueryParam("authorId")
	drafts := c.QueryParam("drafts") == "true"

	if derr := a.shaper.Validate(StorySummary{}, params.fields); derr != nil {
		return a.de(c, derr)
	}
	order, derr := buildOrder(params.sort, storySortFields, "updated_at DESC")
	if derr != nil {
		return a.de(c, derr)
	}

	// 匿名默认列表是热点，走 redis 缓存
	cacheKey := fmt.Sprintf(constants.CacheKeyStoryList, params.page, params.pageSize)
	cacheable := params.q == "" && authorID == "" && !drafts && params.sort == "" && params.fields == "" && subjectOf(c) == ""
	if cacheable {
		if data, err := a.rdb.Get(rctx, cacheKey).Bytes(); err != nil {
			if !errors.Is(err, redis.Nil) {
				a.l.Error("failed to query cache for story list", zap.Error(err))
			}
		} else {
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
		}
	}

	query := a.db.WithContext(rctx).Model(&models.Story{})
	if drafts {
		// 草稿箱：要求作者身份，返回自己拥有或协作的全部故事
		author, derr := a.requireAuthor(c)
		if derr != nil {
			return a.de(c, derr)
		}
		query = query.
			Joins("JOIN story_authors ON story_authors.story_id = stories.id").
			Where("story_authors.author_id = ?", author.ID)
	} else {
		query = query.Where("published_at IS NOT NULL")
	}
	if authorID != "" {
		query = query.Where("owner_id = ?", authorID)
	}
	if params.q != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?", "%"+params.q+"%", "%"+params.q+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		a.l.Error("failed to count stories", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var stories []models.Story
	if err := query.Preload("Tags").Order(order).Limit(params.pageSize).Offset(params.offset()).Find(&stories).Error; err != nil {
		a.l.Error("failed to list stories", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	anonymous := domain.ComputeStoryPermissions(false, false)
	items := make([]shaping.Linked[StorySummary], 0, len(stories))
	for i := range stories {
		story := &stories[i]
		items = append(items, shaping.NewLinked(a.storySummary(story), a.links.StoryLinks(story, anonymous)))
	}

	totalPages := calcTotalPages(count, params.pageSize)
	res := shaping.LinkedPagedCollection[StorySummary]{
		Items:      items,
		Page:       params.page,
		PageSize:   params.pageSize,
		TotalCount: count,
		TotalPages: totalPages,
		Links:      a.links.PageLinks("/stories", c.QueryParams(), params.page, totalPages),
	}

	if cacheable {
		if data, err := json.Marshal(&res); err != nil {
			a.l.Error("failed to marshal story list for cache", zap.Error(err))
		} else {
			a.rdb.Set(rctx, cacheKey, data, constants.CacheExpireStoryList)
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
		}
	}

	return c.JSON(http.StatusOK, shaping.ShapePage(a.shaper, res, params.fields))
}

func (a *App) StoryGet(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	fields := c.QueryParam("fields")
	if derr := a.shaper.Validate(StoryResponse{}, fields); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	// 详情使用完整加载形状
	story, err := a.loader.StoryFull(rctx, id, services.LoadOptions{})
	if err != nil {
		a.l.Error("failed to load story detail", zap.String("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	linked := shaping.NewLinked(a.storyResponse(story, res.Permissions), a.links.StoryLinks(story, res.Permissions))
	return c.JSON(http.StatusOK, a.shaper.Shape(linked, fields))
}

func (a *App) storyMapFields(req *StoryUpdateRequest, story *models.Story) {
	if req.Title != nil {
		story.Title = *req.Title
	}
	if req.Description != nil {
		story.Description = *req.Description
	}
}

func (a *App) StoryUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	// 绑定请求体
	var req StoryUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	story := res.Story
	a.storyMapFields(&req, story)

	if err := a.db.WithContext(rctx).Model(story).Updates(map[string]any{
		"title":       story.Title,
		"description": story.Description,
	}).Error; err != nil {
		a.l.Error("failed to update story", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Update", err))
	}

	return c.JSON(http.StatusOK, shaping.NewLinked(a.storyResponse(story, res.Permissions), a.links.StoryLinks(story, res.Permissions)))
}

// StoryDelete 软删除故事及其章节与分卷；正文走补偿式删除流程
func (a *App) StoryDelete(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelDelete, services.LoadOptions{IncludeDeleted: true})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Story.DeletedAt.Valid {
		return a.de(c, domain.AlreadyDeleted("Story", id))
	}

	// 收集正文引用：故事本体 + 全部章节
	bodyIDs := []string{}
	if res.Story.WorkBodyID != "" {
		bodyIDs = append(bodyIDs, res.Story.WorkBodyID)
	}
	var chapters []models.Chapter
	if err := a.db.WithContext(rctx).Where("story_id = ?", id).Find(&chapters).Error; err != nil {
		a.l.Error("failed to load chapters for delete", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Query", err))
	}
	for _, chapter := range chapters {
		if chapter.WorkBodyID != "" {
			bodyIDs = append(bodyIDs, chapter.WorkBodyID)
		}
	}

	// 1. 打待删除标记
	for _, bodyID := range bodyIDs {
		if derr = a.markBodyPendingDelete(rctx, bodyID); derr != nil {
			return a.de(c, derr)
		}
	}

	// 2. 删除关系型元数据
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&models.Chapter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id = ?", id).Delete(&models.Book{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Story{}, "id = ?", id).Error
	}); err != nil {
		a.l.Error("failed to delete story", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Delete", err))
	}

	// 3. 尽力删除正文，失败的留给清理流程
	for _, bodyID := range bodyIDs {
		a.deleteBody(rctx, bodyID)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) StoryPublish(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelPublish, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Story.PublishedAt != nil {
		return a.de(c, domain.NewError("Story.AlreadyPublished", "story is already published"))
	}

	now := time.Now()
	if err := a.db.WithContext(rctx).Model(res.Story).Update("published_at", utils.P(now)).Error; err != nil {
		a.l.Error("failed to publish story", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Update", err))
	}
	res.Story.PublishedAt = &now

	return c.JSON(http.StatusOK, shaping.NewLinked(a.storyResponse(res.Story, res.Permissions), a.links.StoryLinks(res.Story, res.Permissions)))
}

func (a *App) StoryUnpublish(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelPublish, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Story.PublishedAt == nil {
		return a.de(c, domain.NewError("Story.Conflict", "story is not published"))
	}

	if err := a.db.WithContext(rctx).Model(res.Story).Update("published_at", nil).Error; err != nil {
		a.l.Error("failed to unpublish story", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Update", err))
	}
	res.Story.PublishedAt = nil

	return c.JSON(http.StatusOK, shaping.NewLinked(a.storyResponse(res.Story, res.Permissions), a.links.StoryLinks(res.Story, res.Permissions)))
}

func (a *App) StoryTagsUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	var req StoryTagsUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	tags, derr := a.resolveTags(c, req.TagIDs)
	if derr != nil {
		return a.de(c, derr)
	}

	if err := a.db.WithContext(rctx).Model(res.Story).Association("Tags").Replace(tags); err != nil {
		a.l.Error("failed to update story tags", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Update", err))
	}
	res.Story.Tags = tags

	return c.JSON(http.StatusOK, shaping.NewLinked(a.storyResponse(res.Story, res.Permissions), a.links.StoryLinks(res.Story, res.Permissions)))
}

func (a *App) StoryContentGet(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Story.WorkBodyID == "" {
		return a.de(c, domain.NotFound("WorkBody", id))
	}

	body, derr := a.fetchBody(rctx, res.Story.WorkBodyID)
	if derr != nil {
		return a.de(c, derr)
	}

	return c.JSON(http.StatusOK, &ContentResponse{
		Content:   body.Content,
		Note:      body.Note,
		UpdatedAt: body.UpdatedAt,
	})
}

func (a *App) StoryContentPut(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	var req ContentUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), id, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	// 双写顺序：先写正文，再把引用指过去
	bodyID, derr := a.upsertBody(rctx, res.Story.WorkBodyID, req.Content, req.Note)
	if derr != nil {
		return a.de(c, derr)
	}

	if res.Story.WorkBodyID != bodyID {
		if err := a.db.WithContext(rctx).Model(res.Story).Update("work_body_id", bodyID).Error; err != nil {
			a.l.Error("failed to point story at new body", zap.String("id", id), zap.Error(err))
			return a.de(c, domain.Database("Update", err))
		}
	}

	return c.JSON(http.StatusOK, &ContentResponse{
		Content:   req.Content,
		Note:      req.Note,
		UpdatedAt: time.Now(),
	})
}
