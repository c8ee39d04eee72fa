package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("record already exists")
	// ErrEmptyMatch is returned when no match is given or a match has no conditions.
	ErrEmptyMatch = errors.New("match has no conditions")
)

// Store bundles the relation repositories over a single gorm handle, which is either the
// connection pool or an open transaction.
type Store struct {
	db          *gorm.DB
	Users       UserRepository
	Friendships FriendshipRepository
	Blocks      BlockRepository
}

// NewStore creates a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewPostgresUserRepository(db),
		Friendships: NewPostgresFriendshipRepository(db),
		Blocks:      NewPostgresBlockRepository(db),
	}
}

// Transaction runs fn inside one database transaction. fn receives a Store bound to the
// transaction; returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// LockPair serialises transactions touching the unordered pair (a, b) until the current
// transaction ends. Only PostgreSQL needs it; SQLite already runs one writer at a time.
func (s *Store) LockPair(ctx context.Context, a, b string) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	if a > b {
		a, b = b, a
	}
	if err := s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", a+":"+b).Error; err != nil {
		return fmt.Errorf("lock pair: %w", err)
	}
	return nil
}

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.Block{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

type matcher interface {
	IsZero() bool
}

// whereAny ORs the equality conditions produced by cond for each match.
func whereAny[M matcher](q *gorm.DB, matches []M, cond func(M) any) (*gorm.DB, error) {
	if len(matches) == 0 {
		return nil, ErrEmptyMatch
	}
	for i, m := range matches {
		if m.IsZero() {
			return nil, ErrEmptyMatch
		}
		if i == 0 {
			q = q.Where(cond(m))
		} else {
			q = q.Or(cond(m))
		}
	}
	return q, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
