package bridge

import (
	"context"
	"fmt"
	"strings"
)

const helpText = `🦞 Clawdbot 도움말

**기본 명령어**
• /help - 도움말 표시
• /clear - 대화 기록 초기화
• /status - 시스템 상태 확인

**사용 방법**
자유롭게 질문하시면 AI가 답변해드립니다!

예시:
• "오늘 할 일 정리해줘"
• "이메일 초안 작성해줘"
• "코드 리뷰 부탁해"`

// HandleCommand answers special commands without consulting the AI.
// It returns the response text and whether the utterance was a command.
// Commands work for unauthenticated users and never touch session state.
func (b *Bridge) HandleCommand(ctx context.Context, utterance string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(utterance)) {
	case "/help", "도움말":
		return helpText, true

	case "/status", "상태":
		aiLine := "✅ AI: 연결됨"
		if !b.Healthy(ctx) {
			aiLine = "⚠️ AI: 응답 없음"
		}
		model := b.model
		if model == "" {
			model = "기본값"
		}
		return fmt.Sprintf(`🦞 Clawdbot 상태

✅ 서버: 정상
%s
📍 Gateway: %s
🤖 모델: %s`, aiLine, b.gatewayURL, model), true
	}

	return "", false
}
