package services

import (
	"context"
	"errors"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/internal/repositories"
	"github.com/anonto42/skillpath/friend-service/pkg/apperror"
	"go.uber.org/zap"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// SendResult is the outcome of SendRequest. When the receiver already had a pending
// request to the sender, that request is accepted instead and AutoAccepted is set.
type SendResult struct {
	Request      models.FriendRequest
	AutoAccepted bool
}

// FriendshipService owns every rule that spans friendships, friend requests and blocks.
// Each mutating call runs in a single transaction.
type FriendshipService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*SendResult, error)
	AcceptRequest(ctx context.Context, requestID, currentUserID string) error
	RejectRequest(ctx context.Context, requestID, currentUserID string) (*models.FriendRequest, error)
	ListFriends(ctx context.Context, userID string) ([]models.Friendship, error)
	MutualFriends(ctx context.Context, userA, userB string) ([]models.Friendship, error)
	Unfriend(ctx context.Context, userID, friendID string) error
	BlockUser(ctx context.Context, blockerID, blockedID string) (alreadyBlocked bool, err error)
	UnblockUser(ctx context.Context, blockerID, blockedID string) error
	ListBlocked(ctx context.Context, blockerID string) ([]models.Block, error)
	ListSentRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
	ListReceivedRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
	ListActivity(ctx context.Context, userID string, skip, limit int64) ([]models.Activity, error)
}

type friendshipService struct {
	store      *repositories.Store
	activities repositories.ActivityRepository
	journal    journal
}

// NewFriendshipService creates a FriendshipService over store. Committed changes are
// journaled to activities.
func NewFriendshipService(store *repositories.Store, activities repositories.ActivityRepository, log *zap.Logger) FriendshipService {
	return &friendshipService{
		store:      store,
		activities: activities,
		journal:    journal{repo: activities, log: log},
	}
}

func friendshipsBetween(a, b string) []models.FriendshipMatch {
	return []models.FriendshipMatch{
		{UserID: a, FriendID: b},
		{UserID: b, FriendID: a},
	}
}

func requestsBetween(a, b string) []models.FriendRequestMatch {
	return []models.FriendRequestMatch{
		{SenderID: a, ReceiverID: b},
		{SenderID: b, ReceiverID: a},
	}
}

// befriend replaces whatever friendship rows exist for the pair with both directed rows
// and clears requests in both directions.
func befriend(ctx context.Context, tx *repositories.Store, a, b string) error {
	if _, err := tx.Friendships.DeleteFriendships(ctx, friendshipsBetween(a, b)...); err != nil {
		return err
	}
	err := tx.Friendships.CreateFriendships(ctx,
		&models.Friendship{UserID: a, FriendID: b},
		&models.Friendship{UserID: b, FriendID: a},
	)
	if err != nil {
		return err
	}
	_, err = tx.Friendships.DeleteFriendRequests(ctx, requestsBetween(a, b)...)
	return err
}

// unfriendPair removes the friendship and every request between the pair. It reports
// whether a friendship existed.
func unfriendPair(ctx context.Context, tx *repositories.Store, a, b string) (bool, error) {
	removed, err := tx.Friendships.DeleteFriendships(ctx, friendshipsBetween(a, b)...)
	if err != nil {
		return false, err
	}
	if _, err := tx.Friendships.DeleteFriendRequests(ctx, requestsBetween(a, b)...); err != nil {
		return false, err
	}
	return removed > 0, nil
}

// SendRequest creates a pending request from sender to receiver. Any earlier request
// between the two, rejected or stale, is deleted first so the pair starts fresh.
func (s *friendshipService) SendRequest(ctx context.Context, senderID, receiverID string) (*SendResult, error) {
	if receiverID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "receiverId is required")
	}
	if senderID == receiverID {
		return nil, apperror.New(apperror.ErrInvalidOperation, "Cannot add yourself")
	}

	var result SendResult
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.LockPair(ctx, senderID, receiverID); err != nil {
			return err
		}

		blocks, err := tx.Blocks.ListBlocks(ctx,
			models.BlockMatch{BlockerID: senderID, BlockedID: receiverID},
			models.BlockMatch{BlockerID: receiverID, BlockedID: senderID},
		)
		if err != nil {
			return err
		}
		if len(blocks) > 0 {
			return apperror.New(apperror.ErrForbidden, "Cannot send a friend request to this user")
		}

		friends, err := tx.Friendships.ListFriendships(ctx, friendshipsBetween(senderID, receiverID)...)
		if err != nil {
			return err
		}
		if len(friends) > 0 {
			return apperror.New(apperror.ErrConflict, "Already friends")
		}

		pending, err := tx.Friendships.ListFriendRequests(ctx,
			models.FriendRequestMatch{SenderID: senderID, ReceiverID: receiverID, Status: models.StatusPending},
			models.FriendRequestMatch{SenderID: receiverID, ReceiverID: senderID, Status: models.StatusPending},
		)
		if err != nil {
			return err
		}
		var incoming *models.FriendRequest
		for i := range pending {
			if pending[i].SenderID == senderID {
				return apperror.New(apperror.ErrConflict, "Request already sent")
			}
			incoming = &pending[i]
		}

		if incoming != nil {
			if err := befriend(ctx, tx, senderID, receiverID); err != nil {
				return err
			}
			incoming.Status = models.StatusAccepted
			result = SendResult{Request: *incoming, AutoAccepted: true}
			return nil
		}

		if _, err := tx.Friendships.DeleteFriendRequests(ctx, requestsBetween(senderID, receiverID)...); err != nil {
			return err
		}
		req := &models.FriendRequest{SenderID: senderID, ReceiverID: receiverID, Status: models.StatusPending}
		if err := tx.Friendships.CreateFriendRequest(ctx, req); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperror.New(apperror.ErrConflict, "Request already sent")
			}
			return err
		}
		result = SendResult{Request: *req}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("send friend request", err)
	}

	if result.AutoAccepted {
		s.journal.record(ctx, models.ActivityRequestAutoAccepted, senderID, receiverID, result.Request.ID)
	} else {
		s.journal.record(ctx, models.ActivityRequestSent, senderID, receiverID, result.Request.ID)
	}
	return &result, nil
}

// loadIncomingRequest returns the request after checking that currentUserID may answer it.
func loadIncomingRequest(ctx context.Context, tx *repositories.Store, requestID, currentUserID string) (*models.FriendRequest, error) {
	req, err := tx.Friendships.GetFriendRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "Request not found")
		}
		return nil, err
	}
	if req.ReceiverID != currentUserID {
		return nil, apperror.New(apperror.ErrForbidden, "Not authorized")
	}
	if req.Status != models.StatusPending {
		return nil, apperror.New(apperror.ErrConflict, "Already processed")
	}
	return req, nil
}

func (s *friendshipService) AcceptRequest(ctx context.Context, requestID, currentUserID string) error {
	if requestID == "" {
		return apperror.New(apperror.ErrInvalidArgument, "requestId required")
	}

	var accepted *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		req, err := loadIncomingRequest(ctx, tx, requestID, currentUserID)
		if err != nil {
			return err
		}
		if err := tx.LockPair(ctx, req.SenderID, req.ReceiverID); err != nil {
			return err
		}
		// Re-read under the lock; a concurrent unfriend or block may have removed it.
		if req, err = loadIncomingRequest(ctx, tx, requestID, currentUserID); err != nil {
			return err
		}
		if err := befriend(ctx, tx, req.SenderID, req.ReceiverID); err != nil {
			return err
		}
		accepted = req
		return nil
	})
	if err != nil {
		return wrapStoreErr("accept friend request", err)
	}

	s.journal.record(ctx, models.ActivityRequestAccepted, currentUserID, accepted.SenderID, accepted.ID)
	return nil
}

func (s *friendshipService) RejectRequest(ctx context.Context, requestID, currentUserID string) (*models.FriendRequest, error) {
	if requestID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "requestId required")
	}

	var rejected *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		req, err := loadIncomingRequest(ctx, tx, requestID, currentUserID)
		if err != nil {
			return err
		}
		if err := tx.Friendships.UpdateFriendRequestStatus(ctx, req.ID, models.StatusRejected); err != nil {
			return err
		}
		req.Status = models.StatusRejected
		rejected = req
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("reject friend request", err)
	}

	s.journal.record(ctx, models.ActivityRequestRejected, currentUserID, rejected.SenderID, rejected.ID)
	return rejected, nil
}

func (s *friendshipService) ListFriends(ctx context.Context, userID string) ([]models.Friendship, error) {
	if userID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "userId is required")
	}
	friends, err := s.store.Friendships.ListFriendships(ctx, models.FriendshipMatch{UserID: userID})
	if err != nil {
		return nil, wrapStoreErr("list friends", err)
	}
	return friends, nil
}

// MutualFriends returns userA's friendship rows whose friend is also a friend of userB.
func (s *friendshipService) MutualFriends(ctx context.Context, userA, userB string) ([]models.Friendship, error) {
	if userA == "" || userB == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "both user ids are required")
	}

	friendsA, err := s.store.Friendships.ListFriendships(ctx, models.FriendshipMatch{UserID: userA})
	if err != nil {
		return nil, wrapStoreErr("list mutual friends", err)
	}
	friendsB, err := s.store.Friendships.ListFriendships(ctx, models.FriendshipMatch{UserID: userB})
	if err != nil {
		return nil, wrapStoreErr("list mutual friends", err)
	}

	ofB := make(map[string]struct{}, len(friendsB))
	for _, f := range friendsB {
		ofB[f.FriendID] = struct{}{}
	}
	mutual := []models.Friendship{}
	for _, f := range friendsA {
		if _, ok := ofB[f.FriendID]; ok {
			mutual = append(mutual, f)
		}
	}
	return mutual, nil
}

// Unfriend removes the friendship and any request between the pair. Calling it for a
// pair that is not friends succeeds.
func (s *friendshipService) Unfriend(ctx context.Context, userID, friendID string) error {
	if friendID == "" {
		return apperror.New(apperror.ErrInvalidArgument, "friendId is required")
	}

	var removed bool
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.LockPair(ctx, userID, friendID); err != nil {
			return err
		}
		var err error
		removed, err = unfriendPair(ctx, tx, userID, friendID)
		return err
	})
	if err != nil {
		return wrapStoreErr("unfriend", err)
	}

	if removed {
		s.journal.record(ctx, models.ActivityUnfriended, userID, friendID, "")
	}
	return nil
}

// BlockUser tears down any friendship and requests between the pair and records the
// block. Blocking an already blocked user is a successful no-op.
func (s *friendshipService) BlockUser(ctx context.Context, blockerID, blockedID string) (bool, error) {
	if blockedID == "" {
		return false, apperror.New(apperror.ErrInvalidArgument, "blockedId is required")
	}
	if blockerID == blockedID {
		return false, apperror.New(apperror.ErrInvalidOperation, "Cannot block yourself")
	}

	var alreadyBlocked bool
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.LockPair(ctx, blockerID, blockedID); err != nil {
			return err
		}
		existing, err := tx.Blocks.ListBlocks(ctx, models.BlockMatch{BlockerID: blockerID, BlockedID: blockedID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			alreadyBlocked = true
			return nil
		}
		if _, err := unfriendPair(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
		return tx.Blocks.CreateBlock(ctx, &models.Block{BlockerID: blockerID, BlockedID: blockedID})
	})
	if err != nil {
		return false, wrapStoreErr("block user", err)
	}

	if !alreadyBlocked {
		s.journal.record(ctx, models.ActivityBlocked, blockerID, blockedID, "")
	}
	return alreadyBlocked, nil
}

// UnblockUser removes the block in this exact direction. Nothing that the block tore
// down is restored.
func (s *friendshipService) UnblockUser(ctx context.Context, blockerID, blockedID string) error {
	if blockedID == "" {
		return apperror.New(apperror.ErrInvalidArgument, "blockedId is required")
	}

	removed, err := s.store.Blocks.DeleteBlocks(ctx, models.BlockMatch{BlockerID: blockerID, BlockedID: blockedID})
	if err != nil {
		return wrapStoreErr("unblock user", err)
	}

	if removed > 0 {
		s.journal.record(ctx, models.ActivityUnblocked, blockerID, blockedID, "")
	}
	return nil
}

func (s *friendshipService) ListBlocked(ctx context.Context, blockerID string) ([]models.Block, error) {
	if blockerID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "userId is required")
	}
	blocks, err := s.store.Blocks.ListBlocks(ctx, models.BlockMatch{BlockerID: blockerID})
	if err != nil {
		return nil, wrapStoreErr("list blocked users", err)
	}
	return blocks, nil
}

func (s *friendshipService) ListSentRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	if userID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "userId is required")
	}
	requests, err := s.store.Friendships.ListFriendRequests(ctx,
		models.FriendRequestMatch{SenderID: userID, Status: models.StatusPending})
	if err != nil {
		return nil, wrapStoreErr("list sent requests", err)
	}
	return requests, nil
}

func (s *friendshipService) ListReceivedRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	if userID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "userId is required")
	}
	requests, err := s.store.Friendships.ListFriendRequests(ctx,
		models.FriendRequestMatch{ReceiverID: userID, Status: models.StatusPending})
	if err != nil {
		return nil, wrapStoreErr("list received requests", err)
	}
	return requests, nil
}

// ListActivity pages through the journal entries involving userID, newest first.
// limit is clamped to [1, MaxActivityLimit]; zero selects DefaultActivityLimit.
func (s *friendshipService) ListActivity(ctx context.Context, userID string, skip, limit int64) ([]models.Activity, error) {
	if userID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "userId is required")
	}
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	activities, err := s.activities.ListByUser(ctx, userID, skip, limit)
	if err != nil {
		return nil, wrapStoreErr("list activity", err)
	}
	return activities, nil
}
