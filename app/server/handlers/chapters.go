package handlers

import (
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"ihfiction/app/server/services"
	"ihfiction/app/server/shaping"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ChapterCreateRequest struct {
	Title   string  `json:"title" validate:"required,min=1,max=200"`
	Content string  `json:"content"`
	BookID  *string `json:"bookId"`
}

type ChapterUpdateRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=200"`
	Order  *int    `json:"order" validate:"omitempty,min=1"`
	BookID *string `json:"bookId"`
}

// StoryChapterList 故事下的章节；匿名与非协作者只看到已发布的
func (a *App) StoryChapterList(c echo.Context) error {
	rctx := c.Request().Context()
	storyID := c.Param("id")

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), storyID, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	query := a.db.WithContext(rctx).Where("story_id = ?", storyID)
	if !res.Permissions.CanRead {
		query = query.Where("published_at IS NOT NULL")
	}

	var chapters []models.Chapter
	if err := query.Order("sort_order ASC").Find(&chapters).Error; err != nil {
		a.l.Error("failed to list chapters", zap.String("storyId", storyID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	items := make([]shaping.Linked[ChapterSummary], 0, len(chapters))
	for i := range chapters {
		chapter := &chapters[i]
		items = append(items, shaping.NewLinked(a.chapterSummary(chapter), a.links.ChapterLinks(chapter, res.Permissions)))
	}

	return c.JSON(http.StatusOK, items)
}

// nextChapterOrder 追加到末尾
func nextChapterOrder(chapters []models.Chapter) int {
	order := 0
	for _, chapter := range chapters {
		if chapter.Order > order {
			order = chapter.Order
		}
	}
	return order + 1
}

// StoryChapterCreate 在故事下新建章节。
// 单体故事（自身持有正文）在第一次加章节时转为多章节：
// 原正文下沉为第一章，故事本体不再引用正文
func (a *App) StoryChapterCreate(c echo.Context) error {
	rctx := c.Request().Context()
	storyID := c.Param("id")

	var req ChapterCreateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), storyID, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Author == nil {
		return a.de(c, domain.ErrAuthorRequired)
	}

	if req.BookID != nil {
		var count int64
		if err := a.db.WithContext(rctx).Model(&models.Book{}).
			Where("id = ? AND story_id = ?", *req.BookID, storyID).
			Count(&count).Error; err != nil {
			return a.de(c, domain.Database("Query", err))
		}
		if count == 0 {
			return a.de(c, domain.Validation("UnknownBook", "book does not belong to this story"))
		}
	}

	story, err := a.loader.StoryForConversion(rctx, storyID, services.LoadOptions{})
	if err != nil {
		a.l.Error("failed to load story for chapter create", zap.String("id", storyID), zap.Error(err))
		return a.de(c, domain.Database("Query", err))
	}

	chapter := models.Chapter{
		Title:   req.Title,
		StoryID: storyID,
		BookID:  req.BookID,
		OwnerID: res.Author.ID,
		Authors: []models.Author{*res.Author},
		Order:   nextChapterOrder(story.Chapters),
	}

	// 双写顺序：先写正文再写元数据
	if req.Content != "" {
		bodyID, derr := a.upsertBody(rctx, "", req.Content, "")
		if derr != nil {
			return a.de(c, derr)
		}
		chapter.WorkBodyID = bodyID
	}

	if err = a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if story.WorkBodyID != "" && len(story.Chapters) == 0 {
			// 单体转多章节：原正文下沉为第一章
			first := models.Chapter{
				Title:      story.Title,
				StoryID:    storyID,
				OwnerID:    story.OwnerID,
				Order:      1,
				WorkBodyID: story.WorkBodyID,
			}
			if err := tx.Create(&first).Error; err != nil {
				return err
			}
			if err := tx.Model(story).Update("work_body_id", "").Error; err != nil {
				return err
			}
			chapter.Order = 2
		}
		return tx.Create(&chapter).Error
	}); err != nil {
		a.l.Error("failed to create chapter", zap.String("storyId", storyID), zap.Error(err))
		return a.de(c, domain.Database("Insert", err))
	}

	perms := domain.ComputeStoryPermissions(true, true)
	return c.JSON(http.StatusCreated, shaping.NewLinked(a.chapterResponse(&chapter, perms), a.links.ChapterLinks(&chapter, perms)))
}

func (a *App) ChapterGet(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	fields := c.QueryParam("fields")
	if derr := a.shaper.Validate(ChapterResponse{}, fields); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	linked := shaping.NewLinked(a.chapterResponse(res.Chapter, res.Permissions), a.links.ChapterLinks(res.Chapter, res.Permissions))
	return c.JSON(http.StatusOK, a.shaper.Shape(linked, fields))
}

func (a *App) ChapterUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	var req ChapterUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	chapter := res.Chapter
	updates := map[string]any{}
	if req.Title != nil {
		chapter.Title = *req.Title
		updates["title"] = *req.Title
	}
	if req.Order != nil {
		chapter.Order = *req.Order
		updates["sort_order"] = *req.Order
	}
	if req.BookID != nil {
		if *req.BookID == "" {
			// 移出分卷
			chapter.BookID = nil
			updates["book_id"] = nil
		} else {
			var count int64
			if err := a.db.WithContext(rctx).Model(&models.Book{}).
				Where("id = ? AND story_id = ?", *req.BookID, chapter.StoryID).
				Count(&count).Error; err != nil {
				return a.de(c, domain.Database("Query", err))
			}
			if count == 0 {
				return a.de(c, domain.Validation("UnknownBook", "book does not belong to this story"))
			}
			chapter.BookID = req.BookID
			updates["book_id"] = *req.BookID
		}
	}

	if len(updates) > 0 {
		if err := a.db.WithContext(rctx).Model(chapter).Updates(updates).Error; err != nil {
			a.l.Error("failed to update chapter", zap.String("id", id), zap.Error(err))
			return a.de(c, domain.Database("Update", err))
		}
	}

	return c.JSON(http.StatusOK, shaping.NewLinked(a.chapterResponse(chapter, res.Permissions), a.links.ChapterLinks(chapter, res.Permissions)))
}

// ChapterDelete 软删除章节；正文走补偿式删除流程
func (a *App) ChapterDelete(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelDelete, services.LoadOptions{IncludeDeleted: true})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Chapter.DeletedAt.Valid {
		return a.de(c, domain.AlreadyDeleted("Chapter", id))
	}

	// 1. 打待删除标记
	if res.Chapter.WorkBodyID != "" {
		if derr = a.markBodyPendingDelete(rctx, res.Chapter.WorkBodyID); derr != nil {
			return a.de(c, derr)
		}
	}

	// 2. 删除关系型元数据
	if err := a.db.WithContext(rctx).Delete(&models.Chapter{}, "id = ?", id).Error; err != nil {
		a.l.Error("failed to delete chapter", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Delete", err))
	}

	// 3. 尽力删除正文
	if res.Chapter.WorkBodyID != "" {
		a.deleteBody(rctx, res.Chapter.WorkBodyID)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) ChapterPublish(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelPublish, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Chapter.PublishedAt != nil {
		return a.de(c, domain.NewError("Chapter.AlreadyPublished", "chapter is already published"))
	}

	now := time.Now()
	if err := a.db.WithContext(rctx).Model(res.Chapter).Update("published_at", &now).Error; err != nil {
		a.l.Error("failed to publish chapter", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Update", err))
	}
	res.Chapter.PublishedAt = &now

	return c.JSON(http.StatusOK, shaping.NewLinked(a.chapterResponse(res.Chapter, res.Permissions), a.links.ChapterLinks(res.Chapter, res.Permissions)))
}

func (a *App) ChapterUnpublish(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelPublish, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Chapter.PublishedAt == nil {
		return a.de(c, domain.NewError("Chapter.Conflict", "chapter is not published"))
	}

	if err := a.db.WithContext(rctx).Model(res.Chapter).Update("published_at", nil).Error; err != nil {
		a.l.Error("failed to unpublish chapter", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Update", err))
	}
	res.Chapter.PublishedAt = nil

	return c.JSON(http.StatusOK, shaping.NewLinked(a.chapterResponse(res.Chapter, res.Permissions), a.links.ChapterLinks(res.Chapter, res.Permissions)))
}

func (a *App) ChapterContentGet(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Chapter.WorkBodyID == "" {
		return a.de(c, domain.NotFound("WorkBody", id))
	}

	body, derr := a.fetchBody(rctx, res.Chapter.WorkBodyID)
	if derr != nil {
		return a.de(c, derr)
	}

	return c.JSON(http.StatusOK, &ContentResponse{
		Content:   body.Content,
		Note:      body.Note,
		UpdatedAt: body.UpdatedAt,
	})
}

func (a *App) ChapterContentPut(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	var req ContentUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeChapter(rctx, subjectOf(c), id, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	// 双写顺序：先写正文，再把引用指过去
	bodyID, derr := a.upsertBody(rctx, res.Chapter.WorkBodyID, req.Content, req.Note)
	if derr != nil {
		return a.de(c, derr)
	}

	if res.Chapter.WorkBodyID != bodyID {
		if err := a.db.WithContext(rctx).Model(res.Chapter).Update("work_body_id", bodyID).Error; err != nil {
			a.l.Error("failed to point chapter at new body", zap.String("id", id), zap.Error(err))
			return a.de(c, domain.Database("Update", err))
		}
	}

	return c.JSON(http.StatusOK, &ContentResponse{
		Content:   req.Content,
		Note:      req.Note,
		UpdatedAt: time.Now(),
	})
}
