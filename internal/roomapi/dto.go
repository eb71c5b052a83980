package roomapi

import (
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

// JSON-формы REST API сервиса комнат. Общие для сервера и клиента.

type CreateRoomRequest struct {
	Language domain.Language `json:"language,omitempty"`
}

type UpdateCodeRequest struct {
	Code string `json:"code"`
}

type UpdateTaskRequest struct {
	Task  string  `json:"task"`
	Title *string `json:"title,omitempty"`
}

type UpdateLanguageRequest struct {
	Language domain.Language `json:"language"`
}

type ExecuteRequest struct {
	Code     string          `json:"code"`
	Language domain.Language `json:"language"`
}

type Room struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Language  domain.Language `json:"language"`
	Task      string          `json:"task"`
	TaskTitle *string         `json:"taskTitle,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

type Health struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func RoomFromDomain(r domain.Room) Room {
	return Room{
		ID:        r.ID,
		Code:      r.Code,
		Language:  r.Language,
		Task:      r.Task,
		TaskTitle: r.TaskTitle,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (r Room) Domain() domain.Room {
	out := domain.Room{
		ID:        r.ID,
		Code:      r.Code,
		Language:  r.Language,
		Task:      r.Task,
		TaskTitle: r.TaskTitle,
	}
	if ts, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		out.CreatedAt = ts
	}
	return out
}

func ParticipantsFromDomain(ps []domain.Participant) []Participant {
	out := make([]Participant, 0, len(ps))
	for _, p := range ps {
		out = append(out, Participant{ID: p.ID, Name: p.Name, IsOnline: p.IsOnline})
	}
	return out
}
