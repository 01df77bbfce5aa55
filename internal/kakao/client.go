package kakao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MaxOutputs is the platform's hard limit on bubbles per response.
const MaxOutputs = 3

// truncationNotice is appended to the last bubble when content had to be
// dropped to fit the bubble limit.
const truncationNotice = "\n\n... (내용이 길어 일부 생략됨)"

// Client delivers completed replies to the single-use callback URL the
// platform supplies per inbound request. Delivery is at-most-once: the
// platform does not guarantee a callback URL stays valid after first use
// or a platform-side timeout, so failures are never retried.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a delivery client. timeout bounds the whole callback
// POST; zero means 30 seconds.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendCallback chunks text into bubbles and POSTs the response to
// callbackURL. At most MaxOutputs bubbles are sent: overflow is handled
// by capping the last bubble and appending a truncation notice, a
// deliberate lossy policy. Quick replies ride outside the bubble limit.
// A non-2xx status or transport failure is returned as an error; the
// caller must treat it as "best-effort delivery failed", not retry.
func (c *Client) SendCallback(ctx context.Context, callbackURL, text string, quickReplies []QuickReply) error {
	segments := SplitText(text, DefaultMaxSegment)

	if len(segments) > MaxOutputs {
		last := segments[MaxOutputs-1]
		// Reserve headroom for the notice so the bubble stays within the
		// platform's character limit.
		if budget := DefaultMaxSegment - len(truncationNotice); len(last) > budget {
			capped := SplitText(last, budget)
			last = capped[0]
		}
		segments = segments[:MaxOutputs]
		segments[MaxOutputs-1] = last + truncationNotice
	}

	outputs := make([]Output, len(segments))
	for i, seg := range segments {
		outputs[i] = Output{SimpleText: &SimpleText{Text: seg}}
	}

	resp := SkillResponse{
		Version: responseVersion,
		Template: &Template{
			Outputs:      outputs,
			QuickReplies: quickReplies,
		},
	}

	return c.post(ctx, callbackURL, resp)
}

// SendErrorCallback delivers a fixed-shape error message with retry/help
// quick replies through the normal delivery path.
func (c *Client) SendErrorCallback(ctx context.Context, callbackURL, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "죄송합니다. 처리 중 오류가 발생했습니다."
	}
	return c.SendCallback(ctx, callbackURL, "❌ "+errorMessage, []QuickReply{
		MessageReply("다시 시도", "다시 시도해주세요"),
		MessageReply("도움말", "/help"),
	})
}

func (c *Client) post(ctx context.Context, callbackURL string, payload SkillResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Sending callback", "url", callbackURL, "bytes", len(body))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback POST: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("callback rejected: %d - %s", res.StatusCode, detail)
	}

	slog.Info("Callback sent successfully", "url", callbackURL)
	return nil
}
