package session

import (
	"fmt"
	"log/slog"

	"github.com/clawdbot/kakao-bridge/internal/allowlist"
)

// Authenticator verifies pairing codes against the configured secret and
// promotes sessions to verified. It is the only writer of the durable
// allow-list.
type Authenticator struct {
	store *Store
	allow *allowlist.List
	code  string
}

// VerifyResult is the outcome of a pairing attempt, phrased for the user.
type VerifyResult struct {
	Success bool
	Message string
}

// NewAuthenticator creates an authenticator bound to a store and the
// shared pairing code.
func NewAuthenticator(store *Store, allow *allowlist.List, code string) *Authenticator {
	return &Authenticator{store: store, allow: allow, code: code}
}

// Verify checks code for userID. Already-verified sessions succeed
// idempotently without counting an attempt; after MaxPairingAttempts
// wrong codes the session is locked and every further attempt is
// rejected without incrementing. On success the user is appended to the
// durable allow-list before Verify returns; a failed write is logged and
// the in-memory verification stands for this process lifetime.
func (a *Authenticator) Verify(userID, code, name string) VerifyResult {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	sess := a.store.getOrCreateLocked(userID)

	if sess.Verified {
		return VerifyResult{Success: true, Message: "이미 인증된 사용자입니다."}
	}

	if sess.PairingAttempts >= MaxPairingAttempts {
		slog.Warn("Too many pairing attempts", "user_id", userID)
		return VerifyResult{
			Success: false,
			Message: "인증 시도 횟수를 초과했습니다. 나중에 다시 시도해주세요.",
		}
	}

	sess.PairingAttempts++

	if code != a.code {
		slog.Warn("Invalid pairing code attempt", "user_id", userID, "attempts", sess.PairingAttempts)
		return VerifyResult{
			Success: false,
			Message: fmt.Sprintf("인증 코드가 일치하지 않습니다. (%d회 남음)", MaxPairingAttempts-sess.PairingAttempts),
		}
	}

	sess.Verified = true
	sess.PairingAttempts = 0
	if name != "" {
		sess.Name = name
	} else {
		sess.Name = "User_" + shortID(userID)
	}

	if err := a.allow.Add(allowlist.User{
		KakaoID: userID,
		Name:    sess.Name,
		AddedAt: a.store.now(),
	}); err != nil {
		// Durability is best-effort: the user stays verified in memory but
		// may have to pair again after a restart.
		slog.Error("Failed to persist allow-list", "user_id", userID, "error", err)
	}

	slog.Info("User successfully paired", "user_id", userID, "name", sess.Name)
	return VerifyResult{
		Success: true,
		Message: fmt.Sprintf("🎉 인증 완료! 안녕하세요, %s님. 이제 Clawdbot을 사용할 수 있습니다.", sess.Name),
	}
}

func shortID(userID string) string {
	if len(userID) > 6 {
		return userID[:6]
	}
	return userID
}
