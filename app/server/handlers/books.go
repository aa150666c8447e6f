package handlers

import (
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"ihfiction/app/server/services"
	"ihfiction/app/server/shaping"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BookCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

type BookUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Order       *int    `json:"order" validate:"omitempty,min=1"`
}

// StoryBookList 故事下的分卷；匿名与非协作者只看到已发布的
func (a *App) StoryBookList(c echo.Context) error {
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

	var books []models.Book
	if err := query.Order("sort_order ASC").Find(&books).Error; err != nil {
		a.l.Error("failed to list books", zap.String("storyId", storyID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	items := make([]shaping.Linked[BookSummary], 0, len(books))
	for i := range books {
		book := &books[i]
		items = append(items, shaping.NewLinked(a.bookSummary(book), a.links.BookLinks(book, res.Permissions)))
	}

	return c.JSON(http.StatusOK, items)
}

func (a *App) StoryBookCreate(c echo.Context) error {
	rctx := c.Request().Context()
	storyID := c.Param("id")

	var req BookCreateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeStory(rctx, subjectOf(c), storyID, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	var maxOrder int
	row := a.db.WithContext(rctx).Model(&models.Book{}).
		Where("story_id = ?", storyID).
		Select("COALESCE(MAX(sort_order), 0)").Row()
	if err := row.Scan(&maxOrder); err != nil {
		a.l.Error("failed to compute book order", zap.String("storyId", storyID), zap.Error(err))
		return a.de(c, domain.Database("Query", err))
	}

	book := models.Book{
		Title:       req.Title,
		Description: req.Description,
		StoryID:     storyID,
		Order:       maxOrder + 1,
	}
	if err := a.db.WithContext(rctx).Create(&book).Error; err != nil {
		a.l.Error("failed to create book", zap.String("storyId", storyID), zap.Error(err))
		return a.de(c, domain.Database("Insert", err))
	}

	return c.JSON(http.StatusCreated, shaping.NewLinked(a.bookResponse(&book, res.Permissions), a.links.BookLinks(&book, res.Permissions)))
}

func (a *App) BookGet(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	fields := c.QueryParam("fields")
	if derr := a.shaper.Validate(BookResponse{}, fields); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeBook(rctx, subjectOf(c), id, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	linked := shaping.NewLinked(a.bookResponse(res.Book, res.Permissions), a.links.BookLinks(res.Book, res.Permissions))
	return c.JSON(http.StatusOK, a.shaper.Shape(linked, fields))
}

func (a *App) BookUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	var req BookUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	res, derr := a.auth.AuthorizeBook(rctx, subjectOf(c), id, domain.AccessLevelEdit, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	book := res.Book
	updates := map[string]any{}
	if req.Title != nil {
		book.Title = *req.Title
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		book.Description = *req.Description
		updates["description"] = *req.Description
	}
	if req.Order != nil {
		book.Order = *req.Order
		updates["sort_order"] = *req.Order
	}

	if len(updates) > 0 {
		if err := a.db.WithContext(rctx).Model(book).Updates(updates).Error; err != nil {
			a.l.Error("failed to update book", zap.String("id", id), zap.Error(err))
			return a.de(c, domain.Database("Update", err))
		}
	}

	return c.JSON(http.StatusOK, shaping.NewLinked(a.bookResponse(book, res.Permissions), a.links.BookLinks(book, res.Permissions)))
}

// BookDelete 软删除分卷；卷内章节移回故事根而不是跟着删除
func (a *App) BookDelete(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeBook(rctx, subjectOf(c), id, domain.AccessLevelDelete, services.LoadOptions{IncludeDeleted: true})
	if derr != nil {
		return a.de(c, derr)
	}
	if res.Book.DeletedAt.Valid {
		return a.de(c, domain.AlreadyDeleted("Book", id))
	}

	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Chapter{}).Where("book_id = ?", id).Update("book_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Book{}, "id = ?", id).Error
	}); err != nil {
		a.l.Error("failed to delete book", zap.String("id", id), zap.Error(err))
		return a.de(c, domain.Database("Delete", err))
	}

	return c.NoContent(http.StatusOK)
}

// BookChapterList 分卷内的章节；匿名与非协作者只看到已发布的
func (a *App) BookChapterList(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	res, derr := a.auth.AuthorizeBook(rctx, subjectOf(c), id, domain.AccessLevelRead, services.LoadOptions{})
	if derr != nil {
		return a.de(c, derr)
	}

	query := a.db.WithContext(rctx).Where("book_id = ?", id)
	if !res.Permissions.CanRead {
		query = query.Where("published_at IS NOT NULL")
	}

	var chapters []models.Chapter
	if err := query.Order("sort_order ASC").Find(&chapters).Error; err != nil {
		a.l.Error("failed to list book chapters", zap.String("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	items := make([]shaping.Linked[ChapterSummary], 0, len(chapters))
	for i := range chapters {
		chapter := &chapters[i]
		items = append(items, shaping.NewLinked(a.chapterSummary(chapter), a.links.ChapterLinks(chapter, res.Permissions)))
	}

	return c.JSON(http.StatusOK, items)
}
