// Package webhook provides the HTTP handlers for the Kakao skill
// endpoint: request decoding, session and pairing orchestration, and the
// immediate-ack / asynchronous-callback decision.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clawdbot/kakao-bridge/internal/bridge"
	"github.com/clawdbot/kakao-bridge/internal/kakao"
	"github.com/clawdbot/kakao-bridge/internal/session"
)

// maxRequestBodySize bounds the webhook payload (1MB).
const maxRequestBodySize = 1 << 20

const historyClearedText = "대화 기록이 초기화되었습니다. 새로운 대화를 시작해보세요! ✨"

// Asker answers user utterances. The implementation fails closed and
// never returns an error.
type Asker interface {
	Ask(ctx context.Context, message, sessionKey string, history []session.Message) bridge.Reply
	HandleCommand(ctx context.Context, utterance string) (string, bool)
}

// Deliverer posts completed replies to one-shot callback URLs.
type Deliverer interface {
	SendCallback(ctx context.Context, callbackURL, text string, quickReplies []kakao.QuickReply) error
	SendErrorCallback(ctx context.Context, callbackURL, errorMessage string) error
}

// Handler wires the session store, pairing authenticator, AI bridge and
// delivery client behind the skill endpoint.
type Handler struct {
	store           *session.Store
	auth            *session.Authenticator
	ai              Asker
	delivery        Deliverer
	deliveryTimeout time.Duration
}

// NewHandler creates a webhook handler. deliveryTimeout bounds the whole
// async path: gateway call plus callback POST.
func NewHandler(store *session.Store, auth *session.Authenticator, ai Asker, delivery Deliverer, deliveryTimeout time.Duration) *Handler {
	if deliveryTimeout <= 0 {
		deliveryTimeout = 3 * time.Minute
	}
	return &Handler{
		store:           store,
		auth:            auth,
		ai:              ai,
		delivery:        delivery,
		deliveryTimeout: deliveryTimeout,
	}
}

// RegisterRoutes mounts the skill and stats endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/skill", h.handleSkill)
	r.Get("/stats", h.handleStats)
}

func (h *Handler) handleSkill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req kakao.SkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Malformed skill request", "error", err)
		http.Error(w, `{"error":"malformed request"}`, http.StatusBadRequest)
		return
	}

	userID := req.UserRequest.User.ID
	if userID == "" {
		http.Error(w, `{"error":"missing user id"}`, http.StatusBadRequest)
		return
	}

	utterance := strings.TrimSpace(req.UserRequest.Utterance)
	// Captured at arrival: the async path must deliver to exactly this
	// URL, never a later request's.
	callbackURL := req.UserRequest.CallbackURL

	// Command short-circuit. Works unauthenticated and does not verify.
	if text, handled := h.ai.HandleCommand(r.Context(), utterance); handled {
		writeJSON(w, kakao.TextResponse(text))
		return
	}

	if cmd := strings.ToLower(utterance); cmd == "/clear" || cmd == "초기화" {
		h.store.ClearHistory(userID)
		writeJSON(w, kakao.TextResponse(historyClearedText))
		return
	}

	// Unverified users' utterances are treated as pairing codes.
	if !h.store.IsVerified(userID) {
		result := h.auth.Verify(userID, utterance, "")
		writeJSON(w, kakao.TextResponse(result.Message))
		return
	}

	history := h.store.History(userID)
	h.store.AppendMessage(userID, session.RoleUser, utterance)

	if callbackURL == "" {
		// Platform without callback support: answer within the
		// synchronous window and hope the gateway is quick enough.
		reply := h.ai.Ask(r.Context(), utterance, userID, history)
		h.store.AppendMessage(userID, session.RoleAssistant, reply.Text)
		writeJSON(w, kakao.TextResponse(reply.Text))
		return
	}

	go h.deliver(userID, utterance, callbackURL, history)
	writeJSON(w, kakao.ImmediateResponse(""))
}

// deliver runs the slow half of a request: gateway call, history append,
// callback POST. It is detached from the inbound request's context, and
// a delivery failure leaves the session state intact for the next
// message.
func (h *Handler) deliver(userID, utterance, callbackURL string, history []session.Message) {
	deliveryID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), h.deliveryTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Delivery panicked", "delivery_id", deliveryID, "user_id", userID, "panic", rec)
			if err := h.delivery.SendErrorCallback(ctx, callbackURL, ""); err != nil {
				slog.Error("Error callback failed", "delivery_id", deliveryID, "error", err)
			}
		}
	}()

	reply := h.ai.Ask(ctx, utterance, userID, history)
	h.store.AppendMessage(userID, session.RoleAssistant, reply.Text)

	if err := h.delivery.SendCallback(ctx, callbackURL, reply.Text, nil); err != nil {
		// At-most-once: the reply to this inbound message is lost.
		slog.Error("Callback delivery failed",
			"delivery_id", deliveryID,
			"user_id", userID,
			"error", err)
		return
	}
	slog.Info("Reply delivered",
		"delivery_id", deliveryID,
		"user_id", userID,
		"elapsed", reply.ProcessingTime)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
