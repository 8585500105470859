package models

import (
	"fmt"
	"time"
)

// TokenMode distinguishes full service access from a read-only guest view.
// The numeric values are persisted.
type TokenMode int

const (
	ModeService TokenMode = iota
	ModeGuest
)

func (m TokenMode) String() string {
	switch m {
	case ModeService:
		return "service"
	case ModeGuest:
		return "guest"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// OneLifeToken is a single-use, expiring reference to one subject (tag).
type OneLifeToken struct {
	TokenKey  string
	SubjectID string
	ExpiresAt time.Time
	Mode      TokenMode
	OwnerID   *string
	Consumed  bool
	CreatedAt time.Time
}

func (t *OneLifeToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenStatus is the consumption view of a token.
type TokenStatus struct {
	SubjectID string
	Consumed  bool
}
