package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSelfRelation is returned by the create hooks when both ends of a relation are the
// same user.
var ErrSelfRelation = errors.New("a user cannot relate to themselves")

// RequestStatus is the lifecycle state of a FriendRequest. Accepted requests are deleted,
// so StatusAccepted is never persisted.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Friendship is one directed half of a friendship. Every friendship exists as exactly
// two rows, (A,B) and (B,A), or not at all.
type Friendship struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" gorm:"size:64;not null;index;uniqueIndex:idx_friendship_pair"`
	FriendID  string    `json:"friendId" gorm:"size:64;not null;index;uniqueIndex:idx_friendship_pair"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.UserID == f.FriendID {
		return ErrSelfRelation
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// FriendRequest is a directed request from SenderID to ReceiverID.
type FriendRequest struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	SenderID   string        `json:"senderId" gorm:"size:64;not null;index;uniqueIndex:idx_request_pair"`
	ReceiverID string        `json:"receiverId" gorm:"size:64;not null;index;uniqueIndex:idx_request_pair"`
	Status     RequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.SenderID == r.ReceiverID {
		return ErrSelfRelation
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

// FriendshipMatch selects friendship rows by equality. Empty fields match anything.
type FriendshipMatch struct {
	UserID   string
	FriendID string
}

func (m FriendshipMatch) IsZero() bool {
	return m.UserID == "" && m.FriendID == ""
}

// FriendRequestMatch selects friend request rows by equality. Empty fields match anything.
type FriendRequestMatch struct {
	ID         string
	SenderID   string
	ReceiverID string
	Status     RequestStatus
}

func (m FriendRequestMatch) IsZero() bool {
	return m.ID == "" && m.SenderID == "" && m.ReceiverID == "" && m.Status == ""
}

// SendFriendRequest defines the request body for sending a friend request
type SendFriendRequest struct {
	ReceiverID ExternalID `json:"receiverId" validate:"required"`
}

// FriendRequestAction is the body of accept and reject calls.
type FriendRequestAction struct {
	RequestID string `json:"requestId" validate:"required"`
}

// UnfriendRequest defines the request body for removing a friend
type UnfriendRequest struct {
	FriendID ExternalID `json:"friendId" validate:"required"`
}
