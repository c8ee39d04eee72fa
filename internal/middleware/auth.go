package middleware

import (
	"context"
	"strings"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/pkg/apperror"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// BearerAuth rejects requests without a valid "Bearer <token>" header and stores the
// verified identity in the echo context.
func BearerAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperror.New(apperror.ErrUnauthorized, "Missing Authorization header")
			}

			scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return apperror.New(apperror.ErrUnauthorized, "Invalid Authorization header format")
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				c.Logger().Debugf("token rejected: %v", err)
				return apperror.New(apperror.ErrUnauthorized, "Invalid or expired token")
			}
			if identity == nil || identity.UserID == "" {
				return apperror.New(apperror.ErrUnauthorized, "Missing user in token")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by BearerAuth.
func IdentityFrom(c echo.Context) (*models.Identity, error) {
	identity, ok := c.Get(identityKey).(*models.Identity)
	if !ok || identity == nil || identity.UserID == "" {
		return nil, apperror.New(apperror.ErrUnauthorized, "Missing user in token")
	}
	return identity, nil
}
