package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/clawdbot/kakao-bridge/internal/allowlist"
)

// Store owns the session table. It is safe for concurrent use; every
// operation takes the store lock, so a session is never partially visible
// across eviction and request handling.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	allow   *allowlist.List
	adminID string
	now     func() time.Time
}

// NewStore creates an empty store. Sessions for users already on the
// allow-list (or matching adminID) start out verified.
func NewStore(allow *allowlist.List, adminID string) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		allow:    allow,
		adminID:  adminID,
		now:      time.Now,
	}
}

// SetClock replaces the store's clock. Tests use this to drive TTL and
// activity windows deterministically.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetOrCreate returns the session for userID, creating it lazily.
// LastActive is refreshed on every call. Never fails: an evicted session
// simply comes back as a new one.
func (s *Store) GetOrCreate(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(userID)
}

func (s *Store) getOrCreateLocked(userID string) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{
			UserID:   userID,
			Verified: s.allow.Contains(userID) || (s.adminID != "" && userID == s.adminID),
		}
		s.sessions[userID] = sess
		slog.Info("New session created", "user_id", userID, "verified", sess.Verified)
	}
	sess.LastActive = s.now()
	return sess
}

// IsVerified reports whether userID has completed pairing (or is
// pre-authorized). Creates the session as a side effect, like every
// other access.
func (s *Store) IsVerified(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(userID).Verified
}

// AppendMessage adds a conversation message, evicting the oldest entries
// so the history never exceeds MaxHistory at rest.
func (s *Store) AppendMessage(userID string, role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	sess.History = append(sess.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
	if n := len(sess.History) - MaxHistory; n > 0 {
		sess.History = append(sess.History[:0], sess.History[n:]...)
	}
}

// History returns a copy of the conversation history, oldest first.
func (s *Store) History(userID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	out := make([]Message, len(sess.History))
	copy(out, sess.History)
	return out
}

// ClearHistory empties the conversation history in place. Verification
// state and session identity are untouched.
func (s *Store) ClearHistory(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	sess.History = nil
	slog.Info("Conversation history cleared", "user_id", userID)
}

// EvictExpired removes every session idle longer than TTL as of now and
// returns the count removed. Meant to be driven by the reaper.
func (s *Store) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActive) > TTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("Evicted expired sessions", "count", evicted)
	}
	return evicted
}

// Stats scans the table and returns counts. Read-only.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	oneHourAgo := s.now().Add(-time.Hour)
	st := Stats{TotalSessions: len(s.sessions)}
	for _, sess := range s.sessions {
		if sess.Verified {
			st.VerifiedUsers++
		}
		if sess.LastActive.After(oneHourAgo) {
			st.ActiveInLastHour++
		}
	}
	return st
}
