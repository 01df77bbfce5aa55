package allowlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed-users.json")

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load of missing file returned error: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Expected empty list, got %d users", l.Len())
	}
	if l.Contains("anyone") {
		t.Error("Empty list should not contain anyone")
	}
}

func TestAddPersistsFullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "allowed-users.json")

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	added := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Add(User{KakaoID: "U1", Name: "Alice", AddedAt: added}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(User{KakaoID: "U2", Name: "Bob", AddedAt: added}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !l.Contains("U1") || !l.Contains("U2") {
		t.Error("Added users should be contained")
	}

	// The file is a plain JSON array, rewritten whole on each add.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 persisted users, got %d", len(users))
	}
	if users[0].KakaoID != "U1" || users[1].KakaoID != "U2" {
		t.Errorf("Unexpected order: %v", users)
	}

	// A fresh load sees the same membership.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !reloaded.Contains("U2") {
		t.Error("Reloaded list should contain U2")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed-users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed file")
	}
}
