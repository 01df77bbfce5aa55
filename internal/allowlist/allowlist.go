// Package allowlist persists the set of users permitted to talk to the bot
// without re-pairing. The list is a flat JSON array on disk, rewritten in
// full on every change.
package allowlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// User is one durable allow-list entry. Field names match the on-disk
// format written by earlier deployments.
type User struct {
	KakaoID string    `json:"kakaoId"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"addedAt"`
}

// List is the durable allow-list backed by a single JSON file.
// Add serializes writers so concurrent pairings cannot lose updates.
type List struct {
	mu    sync.RWMutex
	path  string
	users []User
}

// Load reads the allow-list from path. A missing file means zero allowed
// users and is not an error; a malformed file is.
func Load(path string) (*List, error) {
	l := &List{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read allow-list %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &l.users); err != nil {
		return nil, fmt.Errorf("parse allow-list %s: %w", path, err)
	}
	return l, nil
}

// Contains reports whether userID is on the list.
func (l *List) Contains(userID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, u := range l.users {
		if u.KakaoID == userID {
			return true
		}
	}
	return false
}

// Add appends a user and rewrites the whole file. The in-memory list is
// updated even when the write fails; the caller decides how loudly to
// report the lost durability.
func (l *List) Add(u User) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.users = append(l.users, u)
	return l.saveLocked()
}

// Len returns the number of allowed users.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.users)
}

func (l *List) saveLocked() error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create allow-list dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(l.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode allow-list: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write allow-list %s: %w", l.path, err)
	}
	return nil
}
