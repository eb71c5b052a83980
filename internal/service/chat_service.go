package service

import (
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

// ChatService проверяет и штампует сообщения перед рассылкой. История не хранится.
type ChatService struct {
	maxLen int
	now    func() time.Time
}

func NewChatService() *ChatService {
	return &ChatService{maxLen: domain.MaxChatMessageLen, now: time.Now}
}

func (s *ChatService) Compose(userName, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	if len([]rune(text)) > s.maxLen {
		return domain.ChatMessage{}, domain.ErrMessageTooLong
	}
	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = defaultParticipantName
	}

	ts := s.now().UTC()
	return domain.ChatMessage{
		UserName:  userName,
		Text:      text,
		Timestamp: ts.Format(time.RFC3339),
		Received:  ts,
	}, nil
}
