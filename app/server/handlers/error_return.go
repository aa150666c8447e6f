package handlers

import (
	"ihfiction/app/server/domain"
	"ihfiction/app/server/utils"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type ErrorMessage struct {
	Code    *string `json:"code,omitempty"`
	Message *string `json:"message,omitempty"`
}

// statusFromCode 按前后缀约定把业务错误码映射为 HTTP 状态码
func statusFromCode(code string) int {
	switch {
	case strings.HasPrefix(code, "Validation."):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "Database."):
		return http.StatusInternalServerError
	case strings.HasSuffix(code, ".NotFound"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "NotAuthorized"),
		strings.HasSuffix(code, ".OwnerOnlyOperation"),
		strings.HasSuffix(code, ".CollaboratorRequired"),
		strings.HasSuffix(code, ".InsufficientPermissions"),
		strings.HasSuffix(code, ".AuthorRequired"):
		return http.StatusForbidden
	case strings.HasSuffix(code, ".AlreadyDeleted"),
		strings.HasSuffix(code, ".AlreadyPublished"),
		strings.HasSuffix(code, ".Conflict"):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// de 返回业务错误
func (a *App) de(c echo.Context, derr *domain.Error) error {
	return c.JSON(statusFromCode(derr.Code), &ErrorMessage{
		Code:    utils.P(derr.Code),
		Message: utils.P(derr.Description),
	})
}

// er 返回纯状态码错误（意外失败）
func (a *App) er(c echo.Context, statusCode int) error {
	return c.JSON(statusCode, &ErrorMessage{
		Message: utils.P(http.StatusText(statusCode)),
	})
}
