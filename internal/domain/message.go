package domain

import "time"

// ChatMessage живёт только в рамках сессии, порядок определяется порядком прихода.
type ChatMessage struct {
	UserName  string
	Text      string
	Timestamp string
	Received  time.Time
}

// MaxChatMessageLen ограничивает длину сообщения на стороне relay.
const MaxChatMessageLen = 4000
