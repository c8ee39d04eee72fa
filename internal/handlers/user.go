package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/anonto42/skillpath/friend-service/internal/middleware"
	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/internal/services"
	"github.com/anonto42/skillpath/friend-service/pkg/apperror"
	"github.com/labstack/echo/v4"
)

// UserHandler handles user directory requests
type UserHandler struct {
	directory services.DirectoryService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(directory services.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// PruneResponse is the body returned by prune-orphans.
type PruneResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// RegisterUserRoutes registers the /users routes. Listing is public; everything else
// goes through auth.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("", h.GetUsers)
	g.POST("/sync", h.SyncUser, auth)
	g.DELETE("/me", h.DeleteMe, auth)
	g.POST("/prune-orphans", h.PruneOrphans, auth)
}

// GetUsers lists every shadow user
func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.directory.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// SyncUser upserts the caller's shadow profile. Fields missing from the body are taken
// from the verified token; unknown body fields are rejected. The profile is always keyed
// by the token's user id, and a userId in the body must match it.
func (h *UserHandler) SyncUser(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.SyncUserRequest
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.UserID != nil && *req.UserID != "" && req.UserID.String() != models.CanonicalExternalID(identity.UserID.String()) {
		return apperror.New(apperror.ErrForbidden, "userId does not match the authenticated user")
	}

	user, err := h.directory.SyncUser(c.Request().Context(), services.SyncUserInput{
		ExternalID: identity.UserID.String(),
		Email:      orClaim(req.Email, identity.Email),
		FullName:   orClaim(req.FullName, identity.FullName),
		Username:   orClaim(req.Username, identity.Username),
		Avatar:     orClaim(req.Avatar, identity.Avatar),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// orClaim prefers the body value and falls back to a non-empty token claim.
func orClaim(body *string, claim string) *string {
	if body != nil || claim == "" {
		return body
	}
	return &claim
}

// DeleteMe removes the caller's shadow profile and every relation they take part in
func (h *UserHandler) DeleteMe(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	if err := h.directory.DeleteUserAndRelations(c.Request().Context(), identity.UserID.String()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User social data deleted successfully"})
}

// PruneOrphans deletes every shadow profile whose id is not in validUserIds
func (h *UserHandler) PruneOrphans(c echo.Context) error {
	if _, err := middleware.IdentityFrom(c); err != nil {
		return err
	}

	var req models.PruneOrphansRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	var valid []string
	if req.ValidUserIDs != nil {
		valid = make([]string, 0, len(req.ValidUserIDs))
		for _, id := range req.ValidUserIDs {
			valid = append(valid, id.String())
		}
	}

	deleted, err := h.directory.PruneOrphanUsers(c.Request().Context(), valid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PruneResponse{
		Message:      "Orphan buddy profiles removed successfully",
		DeletedCount: deleted,
	})
}
