package kakao

const responseVersion = "2.0"

// ThinkingText is the placeholder shown while the asynchronous reply is
// being produced.
const ThinkingText = "🦞 생각 중..."

// ImmediateResponse builds the synchronous acknowledgement that tells the
// platform to expect an asynchronous callback (5-second window escape).
func ImmediateResponse(message string) SkillResponse {
	if message == "" {
		message = ThinkingText
	}
	return SkillResponse{
		Version:     responseVersion,
		UseCallback: true,
		Data:        map[string]string{"text": message},
	}
}

// TextResponse builds a single simple-text bubble response.
func TextResponse(text string) SkillResponse {
	return SkillResponse{
		Version: responseVersion,
		Template: &Template{
			Outputs: []Output{{SimpleText: &SimpleText{Text: text}}},
		},
	}
}

// MessageReply builds a message-action quick reply.
func MessageReply(label, message string) QuickReply {
	return QuickReply{Label: label, Action: "message", MessageText: message}
}
