// Package store держит снимок комнаты на клиенте: оптимистичные локальные
// изменения, сохранение во внешнем сервисе и слияние входящих кадров
// по принципу last-writer-wins.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusNotFound
	StatusLoadError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusNotFound:
		return "not_found"
	case StatusLoadError:
		return "load_error"
	default:
		return "uninitialized"
	}
}

// RoomService — внешний сервис комнат.
type RoomService interface {
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
	UpdateCode(ctx context.Context, id, code string) error
	UpdateTask(ctx context.Context, id, task string, title *string) error
	UpdateLanguage(ctx context.Context, id string, lang domain.Language) error
}

type Broadcaster interface {
	SendCodeUpdate(code string)
	SendTaskUpdate(task string, title *string)
	SendLanguageUpdate(lang domain.Language)
	SendChatMessage(text, userName string)
}

// Subscriber — входящая сторона канала.
type Subscriber interface {
	OnCode(fn func(code string))
	OnTask(fn func(task string))
	OnTaskTitle(fn func(title string))
	OnParticipants(fn func([]domain.Participant))
	OnChat(fn func(domain.ChatMessage))
	OnMe(fn func(id, name string))
	OnLanguage(fn func(lang domain.Language))
}

type NameSaver interface {
	SaveName(name string) error
}

type Change int

const (
	ChangeStatus Change = iota
	ChangeCode
	ChangeTask
	ChangeLanguage
	ChangeParticipants
	ChangeChat
	ChangeOutput
	ChangeIdentity
)

const DefaultUserName = "Guest"

type Store struct {
	svc   RoomService
	bc    Broadcaster
	names NameSaver

	mu           sync.Mutex
	status       Status
	roomID       string
	room         *domain.Room
	participants []domain.Participant
	chat         []domain.ChatMessage
	output       *domain.ExecutionResult
	userID       string
	userName     string
	onChange     func(Change)
}

type Option func(*Store)

// WithNameSaver включает сохранение имени из кадра me.
func WithNameSaver(n NameSaver) Option {
	return func(s *Store) { s.names = n }
}

// WithUserName задаёт имя до прихода кадра me.
func WithUserName(name string) Option {
	return func(s *Store) {
		if name = strings.TrimSpace(name); name != "" {
			s.userName = name
		}
	}
}

func New(svc RoomService, bc Broadcaster, opts ...Option) *Store {
	s := &Store{svc: svc, bc: bc, userName: DefaultUserName}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange регистрирует единственного слушателя изменений снимка.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify(c Change) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

// Load загружает снимок и участников. ErrRoomNotFound — отдельное терминальное
// состояние, прочие ошибки дают load_error и допускают повторный Load.
func (s *Store) Load(ctx context.Context, roomID string) error {
	s.mu.Lock()
	s.status = StatusLoading
	s.roomID = roomID
	s.mu.Unlock()
	s.notify(ChangeStatus)

	room, err := s.svc.GetRoom(ctx, roomID)
	if err != nil {
		s.mu.Lock()
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.status = StatusNotFound
		} else {
			s.status = StatusLoadError
		}
		// снимок прошлой комнаты больше не действителен
		s.room = nil
		s.participants = nil
		s.mu.Unlock()
		s.notify(ChangeStatus)
		slog.Warn("room load failed", "room", roomID, "err", err)
		return err
	}

	parts, err := s.svc.ListParticipants(ctx, roomID)
	if err != nil {
		slog.Warn("participants load failed", "room", roomID, "err", err)
	}

	s.mu.Lock()
	s.room = &room
	s.participants = parts
	s.status = StatusReady
	s.mu.Unlock()
	s.notify(ChangeStatus)
	return nil
}

func (s *Store) UpdateCode(ctx context.Context, code string) error {
	roomID, err := s.apply(func(r *domain.Room) { r.Code = code })
	if err != nil {
		return err
	}
	s.notify(ChangeCode)

	if err := s.svc.UpdateCode(ctx, roomID, code); err != nil {
		slog.Warn("persist code failed", "room", roomID, "err", err)
	}
	s.bc.SendCodeUpdate(code)
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task string, title *string) error {
	roomID, err := s.apply(func(r *domain.Room) {
		r.Task = task
		if title != nil {
			t := *title
			r.TaskTitle = &t
		}
	})
	if err != nil {
		return err
	}
	s.notify(ChangeTask)

	if err := s.svc.UpdateTask(ctx, roomID, task, title); err != nil {
		slog.Warn("persist task failed", "room", roomID, "err", err)
	}
	s.bc.SendTaskUpdate(task, title)
	return nil
}

// UpdateLanguage переключает язык. Шаблон подставляется только если буфер
// пуст или содержит плейсхолдер; пользовательский код не трогается.
func (s *Store) UpdateLanguage(ctx context.Context, lang domain.Language) error {
	if !lang.Valid() {
		return domain.ErrInvalidLanguage
	}

	var (
		substituted bool
		code        string
	)
	roomID, err := s.apply(func(r *domain.Room) {
		if domain.IsDefaultCode(r.Code) {
			r.Code = domain.StarterTemplate(lang)
			substituted = true
		}
		r.Language = lang
		code = r.Code
	})
	if err != nil {
		return err
	}
	s.notify(ChangeLanguage)
	if substituted {
		s.notify(ChangeCode)
	}

	if err := s.svc.UpdateLanguage(ctx, roomID, lang); err != nil {
		slog.Warn("persist language failed", "room", roomID, "err", err)
	}
	if substituted {
		if err := s.svc.UpdateCode(ctx, roomID, code); err != nil {
			slog.Warn("persist code failed", "room", roomID, "err", err)
		}
	}

	s.bc.SendLanguageUpdate(lang)
	if substituted {
		s.bc.SendCodeUpdate(code)
	}
	return nil
}

// LoadTask применяет задачу из встроенной библиотеки.
func (s *Store) LoadTask(ctx context.Context, taskID string) error {
	tpl, ok := domain.FindTask(taskID)
	if !ok {
		return domain.ErrTaskNotFound
	}
	title := tpl.Title
	if err := s.UpdateTask(ctx, tpl.Description, &title); err != nil {
		return err
	}
	if err := s.UpdateCode(ctx, tpl.StarterCode); err != nil {
		return err
	}
	room, _ := s.Room()
	if room.Language != tpl.Language {
		return s.UpdateLanguage(ctx, tpl.Language)
	}
	return nil
}

// SendChat отправляет сообщение от текущего имени. Своё сообщение приходит
// обратно через relay вместе с остальными.
func (s *Store) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyMessage
	}
	if len([]rune(text)) > domain.MaxChatMessageLen {
		return domain.ErrMessageTooLong
	}
	s.bc.SendChatMessage(text, s.UserName())
	return nil
}

func (s *Store) apply(fn func(r *domain.Room)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady || s.room == nil {
		return "", domain.ErrNotReady
	}
	fn(s.room)
	return s.roomID, nil
}

// Attach подписывает стор на входящие кадры канала.
func (s *Store) Attach(sub Subscriber) {
	sub.OnCode(s.mergeCode)
	sub.OnTask(s.mergeTask)
	sub.OnTaskTitle(s.mergeTaskTitle)
	sub.OnLanguage(s.mergeLanguage)
	sub.OnParticipants(s.mergeParticipants)
	sub.OnChat(s.appendChat)
	sub.OnMe(s.adoptIdentity)
}

// merge* заменяют поле целиком, без сравнения версий.
func (s *Store) mergeCode(code string) {
	if s.mergeRoom(func(r *domain.Room) { r.Code = code }) {
		s.notify(ChangeCode)
	}
}

func (s *Store) mergeTask(task string) {
	if s.mergeRoom(func(r *domain.Room) { r.Task = task }) {
		s.notify(ChangeTask)
	}
}

func (s *Store) mergeTaskTitle(title string) {
	if s.mergeRoom(func(r *domain.Room) { r.TaskTitle = &title }) {
		s.notify(ChangeTask)
	}
}

func (s *Store) mergeLanguage(lang domain.Language) {
	if s.mergeRoom(func(r *domain.Room) { r.Language = lang }) {
		s.notify(ChangeLanguage)
	}
}

func (s *Store) mergeRoom(fn func(r *domain.Room)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || s.status != StatusReady {
		return false
	}
	fn(s.room)
	return true
}

func (s *Store) mergeParticipants(ps []domain.Participant) {
	s.SetParticipants(ps)
}

func (s *Store) SetParticipants(ps []domain.Participant) {
	s.mu.Lock()
	s.participants = append([]domain.Participant(nil), ps...)
	s.mu.Unlock()
	s.notify(ChangeParticipants)
}

func (s *Store) appendChat(msg domain.ChatMessage) {
	if msg.Received.IsZero() {
		msg.Received = time.Now()
	}
	s.mu.Lock()
	s.chat = append(s.chat, msg)
	s.mu.Unlock()
	s.notify(ChangeChat)
}

func (s *Store) adoptIdentity(id, name string) {
	s.mu.Lock()
	s.userID = id
	if name = strings.TrimSpace(name); name != "" {
		s.userName = name
	}
	adopted := s.userName
	s.mu.Unlock()

	if s.names != nil {
		if err := s.names.SaveName(adopted); err != nil {
			slog.Warn("save identity failed", "err", err)
		}
	}
	s.notify(ChangeIdentity)
}

// SetOutput хранит последний результат запуска (свой или пришедший от других).
func (s *Store) SetOutput(res domain.ExecutionResult) {
	s.mu.Lock()
	s.output = &res
	s.mu.Unlock()
	s.notify(ChangeOutput)
}

// PollParticipants периодически обновляет список участников до отмены ctx.
func (s *Store) PollParticipants(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			roomID, ready := s.roomID, s.status == StatusReady
			s.mu.Unlock()
			if !ready {
				continue
			}
			ps, err := s.svc.ListParticipants(ctx, roomID)
			if err != nil {
				slog.Debug("participants poll failed", "room", roomID, "err", err)
				continue
			}
			s.SetParticipants(ps)
		}
	}
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) Ready() bool { return s.Status() == StatusReady }

func (s *Store) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Room возвращает копию снимка; false, если комната не загружена.
func (s *Store) Room() (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return domain.Room{}, false
	}
	return s.room.Clone(), true
}

func (s *Store) Participants() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Participant(nil), s.participants...)
}

func (s *Store) Chat() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.chat...)
}

func (s *Store) Output() (domain.ExecutionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output == nil {
		return domain.ExecutionResult{}, false
	}
	return *s.output, true
}

func (s *Store) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}
