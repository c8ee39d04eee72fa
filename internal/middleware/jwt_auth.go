package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// identityClaims is the payload issued by the platform's identity service. Older tokens
// carry the id as userId instead of user_id.
type identityClaims struct {
	UserID   models.ExternalID `json:"user_id"`
	LegacyID models.ExternalID `json:"userId"`
	Email    string            `json:"email"`
	Username string            `json:"username"`
	FullName string            `json:"fullName"`
	Avatar   string            `json:"avatar"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier creates a JWTVerifier for secret
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*models.Identity, error) {
	claims := &identityClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	id := claims.UserID
	if id == "" {
		id = claims.LegacyID
	}
	return &models.Identity{
		UserID:   id,
		Email:    claims.Email,
		Username: claims.Username,
		FullName: claims.FullName,
		Avatar:   claims.Avatar,
	}, nil
}
