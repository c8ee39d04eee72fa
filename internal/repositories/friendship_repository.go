package repositories

import (
	"context"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository defines the interface for friendship and friend request rows.
// List and Delete methods OR their matches together.
type FriendshipRepository interface {
	CreateFriendships(ctx context.Context, rows ...*models.Friendship) error
	ListFriendships(ctx context.Context, matches ...models.FriendshipMatch) ([]models.Friendship, error)
	DeleteFriendships(ctx context.Context, matches ...models.FriendshipMatch) (int64, error)

	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	GetFriendRequestByID(ctx context.Context, id string) (*models.FriendRequest, error)
	ListFriendRequests(ctx context.Context, matches ...models.FriendRequestMatch) ([]models.FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
	DeleteFriendRequests(ctx context.Context, matches ...models.FriendRequestMatch) (int64, error)
}

// PostgresFriendshipRepository implements FriendshipRepository with gorm
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

func friendshipCond(m models.FriendshipMatch) any {
	return &models.Friendship{UserID: m.UserID, FriendID: m.FriendID}
}

func friendRequestCond(m models.FriendRequestMatch) any {
	return &models.FriendRequest{ID: m.ID, SenderID: m.SenderID, ReceiverID: m.ReceiverID, Status: m.Status}
}

// CreateFriendships inserts all rows in one statement
func (r *PostgresFriendshipRepository) CreateFriendships(ctx context.Context, rows ...*models.Friendship) error {
	if len(rows) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(rows).Error)
}

// ListFriendships returns the rows matching any of matches, oldest first
func (r *PostgresFriendshipRepository) ListFriendships(ctx context.Context, matches ...models.FriendshipMatch) ([]models.Friendship, error) {
	q, err := whereAny(r.db.WithContext(ctx).Model(&models.Friendship{}), matches, friendshipCond)
	if err != nil {
		return nil, err
	}
	rows := []models.Friendship{}
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteFriendships deletes the rows matching any of matches
func (r *PostgresFriendshipRepository) DeleteFriendships(ctx context.Context, matches ...models.FriendshipMatch) (int64, error) {
	q, err := whereAny(r.db.WithContext(ctx), matches, friendshipCond)
	if err != nil {
		return 0, err
	}
	res := q.Delete(&models.Friendship{})
	return res.RowsAffected, res.Error
}

// CreateFriendRequest inserts a new friend request
func (r *PostgresFriendshipRepository) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

// GetFriendRequestByID retrieves a friend request by ID
func (r *PostgresFriendshipRepository) GetFriendRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// ListFriendRequests returns the requests matching any of matches, oldest first
func (r *PostgresFriendshipRepository) ListFriendRequests(ctx context.Context, matches ...models.FriendRequestMatch) ([]models.FriendRequest, error) {
	q, err := whereAny(r.db.WithContext(ctx).Model(&models.FriendRequest{}), matches, friendRequestCond)
	if err != nil {
		return nil, err
	}
	requests := []models.FriendRequest{}
	if err := q.Order("created_at, id").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateFriendRequestStatus updates the status of a friend request
func (r *PostgresFriendshipRepository) UpdateFriendRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	res := r.db.WithContext(ctx).Model(&models.FriendRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFriendRequests deletes the requests matching any of matches
func (r *PostgresFriendshipRepository) DeleteFriendRequests(ctx context.Context, matches ...models.FriendRequestMatch) (int64, error) {
	q, err := whereAny(r.db.WithContext(ctx), matches, friendRequestCond)
	if err != nil {
		return 0, err
	}
	res := q.Delete(&models.FriendRequest{})
	return res.RowsAffected, res.Error
}
