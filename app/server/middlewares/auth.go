package middlewares

import (
	"ihfiction/app/server/constants"
	"ihfiction/app/server/oidc"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextKeyPrincipal 解析出的身份在 echo context 里的键
const ContextKeyPrincipal = "principal"

// OIDCAuth 强制要求有效的 bearer token
func OIDCAuth(v *oidc.Verifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: ContextKeyPrincipal,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return v.ParsePrincipal(auth)
		},
	})
}

// OptionalOIDCAuth 带 token 就解析，匿名请求直接放行；无效 token 仍然拒绝
func OptionalOIDCAuth(v *oidc.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			splits := strings.Split(authHeader, " ")
			if len(splits) != 2 || !strings.EqualFold(splits[0], "bearer") {
				return c.NoContent(http.StatusUnauthorized)
			}

			principal, err := v.ParsePrincipal(splits[1])
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}

			c.Set(ContextKeyPrincipal, principal)
			return next(c)
		}
	}
}

// Principal 从 context 取身份，匿名时返回 nil
func Principal(c echo.Context) *oidc.Principal {
	if p, ok := c.Get(ContextKeyPrincipal).(*oidc.Principal); ok {
		return p
	}
	return nil
}

// RequireAuthor "author" 角色策略，作者专属端点使用
func RequireAuthor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Principal(c)
			if p == nil {
				return c.NoContent(http.StatusUnauthorized)
			}
			if !p.HasRole(constants.AuthorRoleName) {
				return c.NoContent(http.StatusForbidden)
			}
			return next(c)
		}
	}
}
