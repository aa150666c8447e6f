package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromCode(t *testing.T) {
	cases := map[string]int{
		"Story.NotFound":                         http.StatusNotFound,
		"Chapter.NotFound":                       http.StatusNotFound,
		"Authorization.OwnerOnlyOperation":       http.StatusForbidden,
		"Authorization.CollaboratorRequired":     http.StatusForbidden,
		"Authorization.InsufficientPermissions":  http.StatusForbidden,
		"Story.NotAuthorized":                    http.StatusForbidden,
		"Story.AlreadyDeleted":                   http.StatusConflict,
		"Story.AlreadyPublished":                 http.StatusConflict,
		"Validation.UnknownField":                http.StatusBadRequest,
		"Validation.Request":                     http.StatusBadRequest,
		"Database.Query":                         http.StatusInternalServerError,
		"Keycloak.RoleAssignment":                http.StatusInternalServerError,
	}

	for code, expected := range cases {
		assert.Equal(t, expected, statusFromCode(code), code)
	}
}
