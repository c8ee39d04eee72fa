package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Block is a directed block. A block in either direction suppresses new friend requests
// between the two users.
type Block struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	BlockerID string    `json:"blockerId" gorm:"size:64;not null;index;uniqueIndex:idx_block_pair"`
	BlockedID string    `json:"blockedId" gorm:"size:64;not null;index;uniqueIndex:idx_block_pair"`
	CreatedAt time.Time `json:"createdAt"`
}

func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.BlockerID == b.BlockedID {
		return ErrSelfRelation
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// BlockMatch selects block rows by equality. Empty fields match anything.
type BlockMatch struct {
	BlockerID string
	BlockedID string
}

func (m BlockMatch) IsZero() bool {
	return m.BlockerID == "" && m.BlockedID == ""
}

// BlockRequest is the body of block and unblock calls. BlockedID is checked by the
// service so a missing id surfaces as an invalid-argument error.
type BlockRequest struct {
	BlockedID ExternalID `json:"blockedId"`
}
