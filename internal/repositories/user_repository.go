package repositories

import (
	"context"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for shadow user operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUserFields(ctx context.Context, id uint, fields map[string]any) error
	DeleteUserByExternalID(ctx context.Context, externalID string) (int64, error)
	ListExternalIDs(ctx context.Context) ([]string, error)
}

// PostgresUserRepository implements UserRepository with gorm
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser inserts a new shadow user
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// GetUserByExternalID retrieves a user by the identity system's id
func (r *PostgresUserRepository) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUsers retrieves all shadow users
func (r *PostgresUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserFields writes the given columns, zero values included.
func (r *PostgresUserRepository) UpdateUserFields(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(fields).Error)
}

// DeleteUserByExternalID removes the shadow row only; relations are the caller's concern.
func (r *PostgresUserRepository) DeleteUserByExternalID(ctx context.Context, externalID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("external_id = ?", externalID).Delete(&models.User{})
	return res.RowsAffected, res.Error
}

// ListExternalIDs returns the external id of every shadow user
func (r *PostgresUserRepository) ListExternalIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
