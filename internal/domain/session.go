package domain

import (
	"strings"
	"time"
)

// ConversationState selects which handler receives free-text input.
type ConversationState string

const (
	StateIdle            ConversationState = "IDLE"
	StateAwaitingPhone   ConversationState = "AWAITING_PHONE"
	StateAwaitingAddress ConversationState = "AWAITING_ADDRESS"
)

// CollectingContact reports whether the session is in the middle of checkout
// contact collection.
func (s ConversationState) CollectingContact() bool {
	return s == StateAwaitingPhone || s == StateAwaitingAddress
}

// Session is the per-user conversational record.
type Session struct {
	UserID    int64
	Name      string
	State     ConversationState
	Phone     string
	Address   string
	Locale    string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns the record created on a user's first contact.
func NewSession(userID int64, name, locale string, now time.Time) Session {
	return Session{
		UserID:    userID,
		Name:      name,
		State:     StateIdle,
		Locale:    locale,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) HasPhone() bool   { return strings.TrimSpace(s.Phone) != "" }
func (s Session) HasAddress() bool { return strings.TrimSpace(s.Address) != "" }
