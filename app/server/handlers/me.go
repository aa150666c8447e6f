package handlers

import (
	"ihfiction/app/server/middlewares"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ProfileUpdateRequest struct {
	Bio string `json:"bio" validate:"max=4000"`
}

// MeGet 当前用户；首次见到时建档（ get-or-create ）
func (a *App) MeGet(c echo.Context) error {
	rctx := c.Request().Context()
	principal := middlewares.Principal(c)

	user, derr := a.users.GetOrCreateUser(rctx, principal)
	if derr != nil {
		return a.de(c, derr)
	}

	author, derr := a.users.AuthorBySubject(rctx, principal.Subject)
	if derr != nil {
		return a.de(c, derr)
	}

	return c.JSON(http.StatusOK, &UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Roles:    user.Roles,
		IsAuthor: author != nil,
	})
}

// MeAuthorCreate 把当前用户晋升为作者
func (a *App) MeAuthorCreate(c echo.Context) error {
	rctx := c.Request().Context()
	principal := middlewares.Principal(c)

	author, derr := a.users.PromoteToAuthor(rctx, principal)
	if derr != nil {
		return a.de(c, derr)
	}

	return c.JSON(http.StatusCreated, a.linkedAuthor(author))
}

// MeAuthorGet 当前用户的作者档案
func (a *App) MeAuthorGet(c echo.Context) error {
	rctx := c.Request().Context()
	principal := middlewares.Principal(c)

	author, derr := a.users.AuthorBySubject(rctx, principal.Subject)
	if derr != nil {
		return a.de(c, derr)
	}
	if author == nil {
		return a.er(c, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, a.linkedAuthor(author))
}

// MeAuthorUpdate 更新当前用户的作者简介
func (a *App) MeAuthorUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	principal := middlewares.Principal(c)

	var req ProfileUpdateRequest
	if derr := a.bind(c, &req); derr != nil {
		return a.de(c, derr)
	}

	author, derr := a.users.AuthorBySubject(rctx, principal.Subject)
	if derr != nil {
		return a.de(c, derr)
	}
	if author == nil {
		return a.er(c, http.StatusNotFound)
	}

	profile, derr := a.users.UpdateProfile(rctx, author.ID, req.Bio)
	if derr != nil {
		return a.de(c, derr)
	}

	author.Profile = profile
	return c.JSON(http.StatusOK, a.linkedAuthor(author))
}
