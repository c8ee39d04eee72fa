package handlers

import (
	"net/http"

	"github.com/anonto42/skillpath/friend-service/internal/middleware"
	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/internal/services"
	"github.com/anonto42/skillpath/friend-service/pkg/apperror"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to friendships, requests and blocks
type FriendshipHandler struct {
	friendships services.FriendshipService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendships services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships}
}

// SendRequestResponse is returned when a request was answered by an existing request in
// the opposite direction.
type SendRequestResponse struct {
	Message      string               `json:"message"`
	AutoAccepted bool                 `json:"autoAccepted"`
	Request      models.FriendRequest `json:"request"`
}

// RegisterFriendshipRoutes registers friendship routes on a group that already requires
// authentication.
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/request", h.SendFriendRequest)
	g.POST("/accept", h.AcceptFriendRequest)
	g.POST("/reject", h.RejectFriendRequest)
	g.GET("/list", h.GetFriends)
	g.GET("/mutual/:id", h.GetMutualFriends)
	g.POST("/unfriend", h.Unfriend)
	g.POST("/block", h.BlockUser)
	g.POST("/unblock", h.UnblockUser)
	g.GET("/blocked", h.GetBlockedUsers)
	g.GET("/sent", h.GetSentRequests)
	g.GET("/received", h.GetReceivedRequests)
	g.GET("/activity", h.GetActivity)
}

// SendFriendRequest sends a friend request to receiverId.
//
// Any previous request between the two users, including a rejected one, is deleted and
// replaced by the new pending request. If receiverId already has a pending request to
// the caller, that request is accepted instead and 200 is returned.
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.SendFriendRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.friendships.SendRequest(c.Request().Context(), identity.UserID.String(), req.ReceiverID.String())
	if err != nil {
		return err
	}

	if result.AutoAccepted {
		return c.JSON(http.StatusOK, SendRequestResponse{
			Message:      "Friend request accepted",
			AutoAccepted: true,
			Request:      result.Request,
		})
	}
	return c.JSON(http.StatusCreated, result.Request)
}

// AcceptFriendRequest accepts a pending request addressed to the caller
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.FriendRequestAction
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.friendships.AcceptRequest(c.Request().Context(), req.RequestID, identity.UserID.String()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

// RejectFriendRequest rejects a pending request addressed to the caller
func (h *FriendshipHandler) RejectFriendRequest(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.FriendRequestAction
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rejected, err := h.friendships.RejectRequest(c.Request().Context(), req.RequestID, identity.UserID.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rejected)
}

// GetFriends lists the caller's friendship rows
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	friends, err := h.friendships.ListFriends(c.Request().Context(), identity.UserID.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, friends)
}

// GetMutualFriends lists the caller's friends who are also friends of :id
func (h *FriendshipHandler) GetMutualFriends(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	mutual, err := h.friendships.MutualFriends(c.Request().Context(), identity.UserID.String(), models.CanonicalExternalID(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutual)
}

// Unfriend removes a friendship. It succeeds even when the users are not friends.
func (h *FriendshipHandler) Unfriend(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.UnfriendRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.friendships.Unfriend(c.Request().Context(), identity.UserID.String(), req.FriendID.String()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Unfriended successfully"})
}

// BlockUser blocks blockedId, removing any friendship and pending requests with them
func (h *FriendshipHandler) BlockUser(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.BlockRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	alreadyBlocked, err := h.friendships.BlockUser(c.Request().Context(), identity.UserID.String(), req.BlockedID.String())
	if err != nil {
		return err
	}
	if alreadyBlocked {
		return c.JSON(http.StatusOK, MessageResponse{Message: "User already blocked"})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User blocked successfully"})
}

// UnblockUser lifts a block placed by the caller
func (h *FriendshipHandler) UnblockUser(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var req models.BlockRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	if err := h.friendships.UnblockUser(c.Request().Context(), identity.UserID.String(), req.BlockedID.String()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User unblocked successfully"})
}

func (h *FriendshipHandler) GetBlockedUsers(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	blocks, err := h.friendships.ListBlocked(c.Request().Context(), identity.UserID.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blocks)
}

func (h *FriendshipHandler) GetSentRequests(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	requests, err := h.friendships.ListSentRequests(c.Request().Context(), identity.UserID.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

func (h *FriendshipHandler) GetReceivedRequests(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	requests, err := h.friendships.ListReceivedRequests(c.Request().Context(), identity.UserID.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

// GetActivity pages through the caller's social activity, newest first
func (h *FriendshipHandler) GetActivity(c echo.Context) error {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		return err
	}

	var skip, limit int64
	if err := echo.QueryParamsBinder(c).Int64("skip", &skip).Int64("limit", &limit).BindError(); err != nil {
		return apperror.New(apperror.ErrInvalidArgument, "skip and limit must be integers")
	}

	activities, err := h.friendships.ListActivity(c.Request().Context(), identity.UserID.String(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activities)
}
