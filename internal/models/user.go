package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ExternalID is a user id issued by the external identity system. It decodes from either
// a JSON string or a JSON number and is stored as text in canonical form.
type ExternalID string

// maxExactFloat is the largest magnitude below which every integer is exact in a float64.
const maxExactFloat = 1 << 53

// CanonicalExternalID trims s and rewrites integral numeric ids in plain decimal, so
// 42, "042", 42.0 and 4.2e1 all name the same user. Other ids are only trimmed.
func CanonicalExternalID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) >= maxExactFloat {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(CanonicalExternalID(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("external id must be a string or a number: %w", err)
	}
	*id = ExternalID(CanonicalExternalID(n.String()))
	return nil
}

func (id ExternalID) String() string {
	return string(id)
}

// User is the local shadow of an identity owned by the external identity system.
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"externalId" gorm:"size:64;uniqueIndex;not null"`
	Email      string    `json:"email" gorm:"size:255"`
	FullName   string    `json:"fullName" gorm:"size:255"`
	Username   string    `json:"username" gorm:"size:150;not null"`
	Avatar     *string   `json:"avatar"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SyncUserRequest is the body of POST /users/sync. A nil field was not sent and leaves
// the stored value untouched; a non-nil field, including "", is written. UserID is
// optional and, when present, must name the token's user.
type SyncUserRequest struct {
	UserID   *ExternalID `json:"userId"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
	Username *string `json:"username" validate:"omitempty,max=150"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=2048"`
}

// PruneOrphansRequest is the body of POST /users/prune-orphans.
type PruneOrphansRequest struct {
	ValidUserIDs []ExternalID `json:"validUserIds"`
}

// Identity is the caller as described by a verified bearer credential.
type Identity struct {
	UserID   ExternalID
	Email    string
	Username string
	FullName string
	Avatar   string
}
