// Package bridge talks to the Clawdbot AI gateway over its
// OpenAI-compatible chat-completions API. The boundary fails closed: Ask
// always returns a usable reply, falling back to a fixed apology text on
// any gateway failure, so callers never see an error from this layer.
package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/clawdbot/kakao-bridge/internal/session"
)

// historyWindow caps how many conversation messages are forwarded to the
// gateway per request.
const historyWindow = 10

// fallbackText is returned whenever the gateway cannot produce a reply.
const fallbackText = "죄송합니다. AI 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

// emptyReplyText covers the odd case of a successful response with no
// content.
const emptyReplyText = "응답을 받지 못했습니다."

// Reply is the gateway's answer.
type Reply struct {
	Text           string
	ProcessingTime time.Duration
}

// Config holds the gateway connection settings.
type Config struct {
	GatewayURL   string
	GatewayToken string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Bridge is the chat-completions client for the gateway.
type Bridge struct {
	client     openai.Client
	health     *http.Client
	gatewayURL string
	model      string
	prompt     string
}

// New creates a bridge from cfg.
func New(cfg Config) *Bridge {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	token := cfg.GatewayToken
	if token == "" {
		// Local gateways ignore auth but the SDK requires a key.
		token = "unused"
	}

	base := strings.TrimSuffix(cfg.GatewayURL, "/")
	client := openai.NewClient(
		option.WithBaseURL(base+"/v1"),
		option.WithAPIKey(token),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	)

	return &Bridge{
		client:     client,
		health:     &http.Client{Timeout: 5 * time.Second},
		gatewayURL: base,
		model:      cfg.Model,
		prompt:     cfg.SystemPrompt,
	}
}

// Ask sends message plus the recent conversation history to the gateway
// and returns the reply. Never returns an error: gateway failures are
// logged and recovered into the fixed fallback text.
func (b *Bridge) Ask(ctx context.Context, message, sessionKey string, history []session.Message) Reply {
	start := time.Now()
	slog.Info("Processing message", "session", sessionKey, "preview", preview(message, 50))

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, historyWindow+2)
	if b.prompt != "" {
		messages = append(messages, openai.SystemMessage(b.prompt))
	}
	if n := len(history) - historyWindow; n > 0 {
		history = history[n:]
	}
	for _, m := range history {
		if m.Role == session.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(b.model),
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("Gateway request failed", "session", sessionKey, "error", err)
		return Reply{Text: fallbackText, ProcessingTime: time.Since(start)}
	}
	if len(resp.Choices) == 0 {
		slog.Error("Gateway returned no choices", "session", sessionKey)
		return Reply{Text: fallbackText, ProcessingTime: time.Since(start)}
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		text = emptyReplyText
	}

	elapsed := time.Since(start)
	slog.Info("Gateway responded", "session", sessionKey, "elapsed", elapsed)
	return Reply{Text: text, ProcessingTime: elapsed}
}

// Healthy reports whether the gateway answers its health endpoint.
func (b *Bridge) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.gatewayURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := b.health.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
