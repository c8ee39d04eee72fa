package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/skillpath/friend-service/internal/models"
)

// IDTokenVerifier is the part of the Firebase auth client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens. The Firebase UID becomes the user id.
type FirebaseVerifier struct {
	client IDTokenVerifier
}

// NewFirebaseVerifier creates a FirebaseVerifier backed by client
func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	claim := func(key string) string {
		s, _ := token.Claims[key].(string)
		return s
	}
	return &models.Identity{
		UserID:   models.ExternalID(token.UID),
		Email:    claim("email"),
		FullName: claim("name"),
		Avatar:   claim("picture"),
	}, nil
}
