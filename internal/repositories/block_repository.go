package repositories

import (
	"context"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"gorm.io/gorm"
)

// BlockRepository defines the interface for block rows
type BlockRepository interface {
	CreateBlock(ctx context.Context, block *models.Block) error
	ListBlocks(ctx context.Context, matches ...models.BlockMatch) ([]models.Block, error)
	DeleteBlocks(ctx context.Context, matches ...models.BlockMatch) (int64, error)
}

// PostgresBlockRepository implements BlockRepository with gorm
type PostgresBlockRepository struct {
	db *gorm.DB
}

// NewPostgresBlockRepository creates a new PostgresBlockRepository
func NewPostgresBlockRepository(db *gorm.DB) *PostgresBlockRepository {
	return &PostgresBlockRepository{db: db}
}

func blockCond(m models.BlockMatch) any {
	return &models.Block{BlockerID: m.BlockerID, BlockedID: m.BlockedID}
}

func (r *PostgresBlockRepository) CreateBlock(ctx context.Context, block *models.Block) error {
	return translate(r.db.WithContext(ctx).Create(block).Error)
}

func (r *PostgresBlockRepository) ListBlocks(ctx context.Context, matches ...models.BlockMatch) ([]models.Block, error) {
	q, err := whereAny(r.db.WithContext(ctx).Model(&models.Block{}), matches, blockCond)
	if err != nil {
		return nil, err
	}
	blocks := []models.Block{}
	if err := q.Order("created_at, id").Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *PostgresBlockRepository) DeleteBlocks(ctx context.Context, matches ...models.BlockMatch) (int64, error) {
	q, err := whereAny(r.db.WithContext(ctx), matches, blockCond)
	if err != nil {
		return 0, err
	}
	res := q.Delete(&models.Block{})
	return res.RowsAffected, res.Error
}
