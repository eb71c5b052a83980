package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

type Kind string

// Сервер -> клиент
const (
	KindCode         Kind = "code"
	KindTask         Kind = "task"
	KindParticipants Kind = "participants"
	KindChat         Kind = "chat"
	KindOutput       Kind = "output"
	KindMe           Kind = "me"
	KindLanguage     Kind = "language"
)

// Клиент -> сервер
const (
	KindJoin           Kind = "join"
	KindCodeUpdate     Kind = "code_update"
	KindTaskUpdate     Kind = "task_update"
	KindChatMessage    Kind = "chat_message"
	KindOutputUpdate   Kind = "output_update"
	KindLanguageUpdate Kind = "language_update"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownKind    = errors.New("unknown frame kind")
)

// Frame — один вариант закрытого набора сообщений. На проводе это плоский
// JSON-объект с полем "type".
type Frame interface {
	Kind() Kind
}

type ParticipantItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

type Code struct {
	Code string `json:"code"`
}

type Task struct {
	Task  string  `json:"task"`
	Title *string `json:"title,omitempty"`
}

type Participants struct {
	Participants []ParticipantItem `json:"participants"`
}

type Chat struct {
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type Output struct {
	Output        string  `json:"output"`
	Error         *string `json:"error"`
	ExecutionTime int64   `json:"executionTime"`
}

type Me struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Language struct {
	Language domain.Language `json:"language"`
}

type Join struct {
	Name string `json:"name"`
}

type CodeUpdate struct {
	Code string `json:"code"`
}

type TaskUpdate struct {
	Task  string  `json:"task"`
	Title *string `json:"title,omitempty"`
}

type ChatMessage struct {
	Text     string `json:"text"`
	UserName string `json:"userName"`
}

type OutputUpdate struct {
	Output        string  `json:"output"`
	Error         *string `json:"error"`
	ExecutionTime int64   `json:"executionTime"`
}

type LanguageUpdate struct {
	Language domain.Language `json:"language"`
}

func (Code) Kind() Kind           { return KindCode }
func (Task) Kind() Kind           { return KindTask }
func (Participants) Kind() Kind   { return KindParticipants }
func (Chat) Kind() Kind           { return KindChat }
func (Output) Kind() Kind         { return KindOutput }
func (Me) Kind() Kind             { return KindMe }
func (Language) Kind() Kind       { return KindLanguage }
func (Join) Kind() Kind           { return KindJoin }
func (CodeUpdate) Kind() Kind     { return KindCodeUpdate }
func (TaskUpdate) Kind() Kind     { return KindTaskUpdate }
func (ChatMessage) Kind() Kind    { return KindChatMessage }
func (OutputUpdate) Kind() Kind   { return KindOutputUpdate }
func (LanguageUpdate) Kind() Kind { return KindLanguageUpdate }

// OutputFromResult / Result конвертируют между результатом запуска и кадром.
func OutputFromResult(r domain.ExecutionResult) OutputUpdate {
	return OutputUpdate{Output: r.Output, Error: r.Error, ExecutionTime: r.ExecutionTimeMs}
}

func (o Output) Result() domain.ExecutionResult {
	return domain.ExecutionResult{Output: o.Output, Error: o.Error, ExecutionTimeMs: o.ExecutionTime}
}

func Encode(f Frame) ([]byte, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Kind(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Kind(), err)
	}
	kind, _ := json.Marshal(f.Kind())
	fields["type"] = kind

	return json.Marshal(fields)
}

// Decode — единственная точка разбора входящих кадров. Обязательные поля
// должны присутствовать и иметь ожидаемый примитивный тип, иначе кадр
// отбрасывается целиком.
func Decode(data []byte) (Frame, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Type == nil {
		return nil, ErrMalformedFrame
	}

	switch Kind(*head.Type) {
	case KindCode, KindCodeUpdate:
		var p struct {
			Code *string `json:"code"`
		}
		if !decodeInto(data, &p) || p.Code == nil {
			return nil, ErrMalformedFrame
		}
		if Kind(*head.Type) == KindCode {
			return Code{Code: *p.Code}, nil
		}
		return CodeUpdate{Code: *p.Code}, nil

	case KindTask, KindTaskUpdate:
		var p struct {
			Task  *string `json:"task"`
			Title *string `json:"title"`
		}
		if !decodeInto(data, &p) || p.Task == nil {
			return nil, ErrMalformedFrame
		}
		if Kind(*head.Type) == KindTask {
			return Task{Task: *p.Task, Title: p.Title}, nil
		}
		return TaskUpdate{Task: *p.Task, Title: p.Title}, nil

	case KindParticipants:
		var p struct {
			Participants *[]struct {
				ID       *string `json:"id"`
				Name     *string `json:"name"`
				IsOnline *bool   `json:"isOnline"`
			} `json:"participants"`
		}
		if !decodeInto(data, &p) || p.Participants == nil {
			return nil, ErrMalformedFrame
		}
		items := make([]ParticipantItem, 0, len(*p.Participants))
		for _, it := range *p.Participants {
			if it.ID == nil || it.Name == nil || it.IsOnline == nil {
				return nil, ErrMalformedFrame
			}
			items = append(items, ParticipantItem{ID: *it.ID, Name: *it.Name, IsOnline: *it.IsOnline})
		}
		return Participants{Participants: items}, nil

	case KindChat:
		var p struct {
			UserName  *string `json:"userName"`
			Text      *string `json:"text"`
			Timestamp *string `json:"timestamp"`
		}
		if !decodeInto(data, &p) || p.UserName == nil || p.Text == nil || p.Timestamp == nil {
			return nil, ErrMalformedFrame
		}
		return Chat{UserName: *p.UserName, Text: *p.Text, Timestamp: *p.Timestamp}, nil

	case KindOutput, KindOutputUpdate:
		var p struct {
			Output        *string `json:"output"`
			Error         *string `json:"error"`
			ExecutionTime *int64  `json:"executionTime"`
		}
		if !decodeInto(data, &p) || p.Output == nil || p.ExecutionTime == nil {
			return nil, ErrMalformedFrame
		}
		if Kind(*head.Type) == KindOutput {
			return Output{Output: *p.Output, Error: p.Error, ExecutionTime: *p.ExecutionTime}, nil
		}
		return OutputUpdate{Output: *p.Output, Error: p.Error, ExecutionTime: *p.ExecutionTime}, nil

	case KindMe:
		var p struct {
			ID   *string `json:"id"`
			Name *string `json:"name"`
		}
		if !decodeInto(data, &p) || p.ID == nil || p.Name == nil {
			return nil, ErrMalformedFrame
		}
		return Me{ID: *p.ID, Name: *p.Name}, nil

	case KindLanguage, KindLanguageUpdate:
		var p struct {
			Language *string `json:"language"`
		}
		if !decodeInto(data, &p) || p.Language == nil {
			return nil, ErrMalformedFrame
		}
		lang := domain.Language(*p.Language)
		if !lang.Valid() {
			return nil, ErrMalformedFrame
		}
		if Kind(*head.Type) == KindLanguage {
			return Language{Language: lang}, nil
		}
		return LanguageUpdate{Language: lang}, nil

	case KindJoin:
		var p struct {
			Name *string `json:"name"`
		}
		if !decodeInto(data, &p) || p.Name == nil {
			return nil, ErrMalformedFrame
		}
		return Join{Name: *p.Name}, nil

	case KindChatMessage:
		var p struct {
			Text     *string `json:"text"`
			UserName *string `json:"userName"`
		}
		if !decodeInto(data, &p) || p.Text == nil || p.UserName == nil {
			return nil, ErrMalformedFrame
		}
		return ChatMessage{Text: *p.Text, UserName: *p.UserName}, nil

	default:
		return nil, ErrUnknownKind
	}
}

func decodeInto(data []byte, dst any) bool {
	return json.Unmarshal(data, dst) == nil
}
