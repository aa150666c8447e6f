package handlers

import (
	"errors"
	"ihfiction/app/server/models"
	"ihfiction/app/server/shaping"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var authorSortFields = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

func (a *App) AuthorList(c echo.Context) error {
	rctx := c.Request().Context()

	params := parseListParams(c)

	// 字段集与排序在用例执行前校验
	if derr := a.shaper.Validate(AuthorResponse{}, params.fields); derr != nil {
		return a.de(c, derr)
	}
	order, derr := buildOrder(params.sort, authorSortFields, "name ASC")
	if derr != nil {
		return a.de(c, derr)
	}

	query := a.db.WithContext(rctx).Model(&models.Author{})
	if params.q != "" {
		query = query.Where("name ILIKE ?", "%"+params.q+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		a.l.Error("failed to count authors", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var authors []models.Author
	if err := query.Preload("Profile").Order(order).Limit(params.pageSize).Offset(params.offset()).Find(&authors).Error; err != nil {
		a.l.Error("failed to list authors", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	items := make([]shaping.Linked[AuthorResponse], 0, len(authors))
	for i := range authors {
		items = append(items, a.linkedAuthor(&authors[i]))
	}

	res := shaping.LinkedPagedCollection[AuthorResponse]{
		Items:      items,
		Page:       params.page,
		PageSize:   params.pageSize,
		TotalCount: count,
		TotalPages: calcTotalPages(count, params.pageSize),
		Links:      a.links.PageLinks("/authors", c.QueryParams(), params.page, calcTotalPages(count, params.pageSize)),
	}

	return c.JSON(http.StatusOK, shaping.ShapePage(a.shaper, res, params.fields))
}

func (a *App) AuthorGet(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	fields := c.QueryParam("fields")
	if derr := a.shaper.Validate(AuthorResponse{}, fields); derr != nil {
		return a.de(c, derr)
	}

	var author models.Author
	if err := a.db.WithContext(rctx).Preload("Profile").First(&author, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to get author", zap.String("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, a.shaper.Shape(a.linkedAuthor(&author), fields))
}
