package domain

import (
	"strings"
	"time"
)

type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
)

func (l Language) Valid() bool {
	return l == LanguageJavaScript || l == LanguagePython
}

// ParseLanguage принимает также короткие алиасы из CLI (js, py).
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js":
		return LanguageJavaScript, nil
	case "python", "py":
		return LanguagePython, nil
	default:
		return "", ErrInvalidLanguage
	}
}

type Room struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	Language  Language  `db:"language"`
	Task      string    `db:"task"`
	TaskTitle *string   `db:"task_title"`
	CreatedAt time.Time `db:"created_at"`
}

// Clone возвращает копию без общих указателей.
func (r Room) Clone() Room {
	if r.TaskTitle != nil {
		t := *r.TaskTitle
		r.TaskTitle = &t
	}
	return r
}
