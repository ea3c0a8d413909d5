package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ContextKey is where echo-jwt stores the parsed token.
const ContextKey = "user"

// Principal is the authenticated admin behind a request.
type Principal struct {
	AdminID uint
	Email   string
	TokenID string
	Claims  *Claims
}

// PrincipalFromContext returns the admin principal of a request, or nil when the request is not authenticated.
func PrincipalFromContext(c echo.Context) *Principal {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !claims.IsAccess() {
		return nil
	}
	return &Principal{
		AdminID: claims.AdminID,
		Email:   claims.Email,
		TokenID: claims.ID,
		Claims:  claims,
	}
}
