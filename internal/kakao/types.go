// Package kakao implements the KakaoTalk skill (chatbot) wire formats:
// request/response payloads, long-text chunking, and asynchronous
// callback delivery.
//
// See https://kakaobusiness.gitbook.io/main/tool/chatbot/skill_guide/ai_chatbot_callback_guide
package kakao

// SkillRequest is the inbound webhook payload. Only the fields the
// bridge consumes are modeled.
type SkillRequest struct {
	Intent struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"intent"`
	UserRequest struct {
		Utterance   string `json:"utterance"`
		CallbackURL string `json:"callbackUrl,omitempty"`
		User        User   `json:"user"`
	} `json:"userRequest"`
	Bot struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"bot"`
	Action struct {
		Name   string            `json:"name"`
		Params map[string]string `json:"params"`
	} `json:"action"`
}

// User identifies the sender. ID is the stable bot user key.
type User struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Properties struct {
		BotUserKey        string `json:"botUserKey,omitempty"`
		PlusfriendUserKey string `json:"plusfriendUserKey,omitempty"`
		IsFriend          bool   `json:"isFriend,omitempty"`
	} `json:"properties"`
}

// SkillResponse is the outbound payload, used both for the synchronous
// answer to the webhook and for the asynchronous callback POST.
type SkillResponse struct {
	Version     string            `json:"version"`
	UseCallback bool              `json:"useCallback,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Template    *Template         `json:"template,omitempty"`
}

// Template holds the response body: up to MaxOutputs message bubbles
// plus optional quick replies.
type Template struct {
	Outputs      []Output     `json:"outputs"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
}

// Output is one message bubble. Only simpleText is in scope.
type Output struct {
	SimpleText *SimpleText `json:"simpleText,omitempty"`
}

// SimpleText is a plain text bubble.
type SimpleText struct {
	Text string `json:"text"`
}

// QuickReply is a tappable suggestion below the response. Quick replies
// do not count toward the bubble limit.
type QuickReply struct {
	Label       string `json:"label"`
	Action      string `json:"action"`
	MessageText string `json:"messageText,omitempty"`
}
