package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clawdbot/kakao-bridge/internal/session"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Auth string `json:"-"`
}

// fakeGateway mimics the OpenAI-compatible chat-completions endpoint.
func fakeGateway(t *testing.T, replyText string, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
			return
		case "/v1/chat/completions":
		default:
			t.Errorf("Unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		captured.Auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Errorf("Decode request: %v", err)
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": replyText},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestAskForwardsPromptAndHistory(t *testing.T) {
	srv, captured := fakeGateway(t, "답변입니다", http.StatusOK)
	b := New(Config{
		GatewayURL:   srv.URL,
		GatewayToken: "tok-123",
		Model:        "clawd-1",
		SystemPrompt: "당신은 어시스턴트입니다.",
		Timeout:      5 * time.Second,
	})

	history := []session.Message{
		{Role: session.RoleUser, Content: "이전 질문"},
		{Role: session.RoleAssistant, Content: "이전 답변"},
	}
	reply := b.Ask(context.Background(), "지금 질문", "U1", history)

	if reply.Text != "답변입니다" {
		t.Errorf("Reply = %q", reply.Text)
	}
	if captured.Auth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", captured.Auth)
	}
	if captured.Model != "clawd-1" {
		t.Errorf("Model = %q", captured.Model)
	}

	roles := make([]string, len(captured.Messages))
	for i, m := range captured.Messages {
		roles[i] = m.Role
	}
	want := []string{"system", "user", "assistant", "user"}
	if strings.Join(roles, ",") != strings.Join(want, ",") {
		t.Errorf("Roles = %v, want %v", roles, want)
	}
	if last := captured.Messages[len(captured.Messages)-1]; last.Content != "지금 질문" {
		t.Errorf("Last message = %q", last.Content)
	}
}

func TestAskTrimsHistoryWindow(t *testing.T) {
	srv, captured := fakeGateway(t, "ok", http.StatusOK)
	b := New(Config{GatewayURL: srv.URL, Timeout: 5 * time.Second})

	history := make([]session.Message, 15)
	for i := range history {
		history[i] = session.Message{Role: session.RoleUser, Content: "m"}
	}
	b.Ask(context.Background(), "q", "U1", history)

	// 10 history entries plus the current message, no system prompt.
	if got := len(captured.Messages); got != historyWindow+1 {
		t.Errorf("Forwarded %d messages, want %d", got, historyWindow+1)
	}
}

func TestAskFailsClosedOnGatewayError(t *testing.T) {
	srv, _ := fakeGateway(t, "", http.StatusInternalServerError)
	b := New(Config{GatewayURL: srv.URL, Timeout: 5 * time.Second})

	reply := b.Ask(context.Background(), "q", "U1", nil)
	if reply.Text != fallbackText {
		t.Errorf("Reply = %q, want fallback", reply.Text)
	}
}

func TestAskFailsClosedOnUnreachableGateway(t *testing.T) {
	b := New(Config{GatewayURL: "http://127.0.0.1:1", Timeout: time.Second})

	reply := b.Ask(context.Background(), "q", "U1", nil)
	if reply.Text != fallbackText {
		t.Errorf("Reply = %q, want fallback", reply.Text)
	}
}

func TestHealthy(t *testing.T) {
	srv, _ := fakeGateway(t, "ok", http.StatusOK)
	b := New(Config{GatewayURL: srv.URL, Timeout: time.Second})
	if !b.Healthy(context.Background()) {
		t.Error("Expected healthy gateway")
	}

	down := New(Config{GatewayURL: "http://127.0.0.1:1", Timeout: time.Second})
	if down.Healthy(context.Background()) {
		t.Error("Expected unhealthy gateway")
	}
}

func TestHandleCommand(t *testing.T) {
	srv, _ := fakeGateway(t, "ok", http.StatusOK)
	b := New(Config{GatewayURL: srv.URL, Model: "clawd-1", Timeout: time.Second})

	tests := []struct {
		utterance string
		handled   bool
		contains  string
	}{
		{"/help", true, "도움말"},
		{"도움말", true, "기본 명령어"},
		{"/HELP", true, "도움말"},
		{"/status", true, "clawd-1"},
		{"상태", true, "연결됨"},
		{"일반 질문", false, ""},
		{"/unknown", false, ""},
	}
	for _, tt := range tests {
		text, handled := b.HandleCommand(context.Background(), tt.utterance)
		if handled != tt.handled {
			t.Errorf("HandleCommand(%q) handled = %v, want %v", tt.utterance, handled, tt.handled)
			continue
		}
		if tt.handled && !strings.Contains(text, tt.contains) {
			t.Errorf("HandleCommand(%q) = %q, want substring %q", tt.utterance, text, tt.contains)
		}
	}
}
