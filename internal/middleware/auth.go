package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
)

// AdminJWT validates access tokens and rejects blacklisted ones.
func AdminJWT(secret []byte, tokens auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  secret,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  auth.ContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		SuccessHandler: func(c echo.Context) {
			if p := auth.PrincipalFromContext(c); p != nil {
				if revoked, _ := tokens.IsAccessTokenBlacklisted(c.Request().Context(), p.TokenID); revoked {
					c.Set(auth.ContextKey, nil)
				}
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized()
		},
	})
}

// RequirePrincipal rejects requests whose token was accepted but does not name an admin session.
func RequirePrincipal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.PrincipalFromContext(c) == nil {
				return unauthorized()
			}
			return next(c)
		}
	}
}

func unauthorized() error {
	httpErr := apperrors.MapErrorToHTTP(apperrors.Unauthorized("admin session required"))
	return echo.NewHTTPError(http.StatusUnauthorized, httpErr.ToErrorResponse())
}
