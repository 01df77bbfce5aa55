// Package session holds the in-memory per-user session table: pairing
// state, bounded conversation history, and TTL-based eviction.
package session

import (
	"time"
)

const (
	// TTL is how long an idle session survives before eviction.
	TTL = 24 * time.Hour

	// MaxHistory bounds the conversation history per session.
	MaxHistory = 20

	// MaxPairingAttempts locks a session after this many wrong codes.
	MaxPairingAttempts = 5
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation history entry. Immutable once appended.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Session is the per-user state. All mutation goes through the Store (or
// the Authenticator, which shares the Store's lock).
type Session struct {
	UserID          string
	Name            string
	Verified        bool
	PairingAttempts int
	LastActive      time.Time
	History         []Message
}

// Stats is a point-in-time summary of the session table.
type Stats struct {
	TotalSessions    int `json:"total_sessions"`
	VerifiedUsers    int `json:"verified_users"`
	ActiveInLastHour int `json:"active_in_last_hour"`
}
