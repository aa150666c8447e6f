package handlers

import (
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type TagCreateRequest struct {
	Category string `json:"category" validate:"required,min=1,max=50"`
	Value    string `json:"value" validate:"required,min=1,max=50"`
}

func (a *App) TagList(c echo.Context) error {
	rctx := c.Request().Context()

	query := a.db.WithContext(rctx).Model(&models.Tag{})
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var tags []models.Tag
	if err := query.Order("category ASC, value ASC").Find(&tags).Error; err != nil {
		a.l.Error("failed to list tags", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	items := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		items = append(items, TagResponse{ID: tag.ID, Category: tag.Category, Value: tag.Value})
	}

	return c.JSON(http.StatusOK, items)
}

func (a *App) TagCreate(c echo.Context) error {
	rctx := c.Request().Context()

	if _, derr := a.requireAuthor(c); derr != nil {
		return a.de(c, derr)
	}

	var req TagCreateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	tag := models.Tag{
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		Value:    strings.ToLower(strings.TrimSpace(req.Value)),
	}

	// category+value 唯一索引兜底并发创建
	if err := a.db.WithContext(rctx).Where(&models.Tag{Category: tag.Category, Value: tag.Value}).FirstOrCreate(&tag).Error; err != nil {
		a.l.Error("failed to create tag", zap.Error(err))
		return a.de(c, domain.Database("Insert", err))
	}

	return c.JSON(http.StatusCreated, &TagResponse{ID: tag.ID, Category: tag.Category, Value: tag.Value})
}
