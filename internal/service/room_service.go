package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	UpdateCode(ctx context.Context, id, code string) error
	UpdateTask(ctx context.Context, id, task string, title *string) error
	UpdateLanguage(ctx context.Context, id string, lang domain.Language) error
}

const (
	roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	roomIDLen      = 6
	createAttempts = 5
)

type RoomService struct {
	roomRepo RoomRepository
	newID    func() (string, error)
}

func NewRoomService(roomRepo RoomRepository) *RoomService {
	return &RoomService{roomRepo: roomRepo, newID: NewRoomID}
}

// NewRoomID — 6 символов из [a-z0-9].
func NewRoomID() (string, error) {
	b := make([]byte, roomIDLen)
	max := big.NewInt(int64(len(roomIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = roomIDAlphabet[n.Int64()]
	}
	return string(b), nil
}

// CreateRoom создаёт комнату со стартовым шаблоном выбранного языка.
func (s *RoomService) CreateRoom(ctx context.Context, lang domain.Language) (*domain.Room, error) {
	if lang == "" {
		lang = domain.LanguageJavaScript
	}
	if !lang.Valid() {
		return nil, domain.ErrInvalidLanguage
	}

	for range createAttempts {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("room id: %w", err)
		}
		room := &domain.Room{
			ID:       id,
			Code:     domain.StarterTemplate(lang),
			Language: lang,
		}
		err = s.roomRepo.Create(ctx, room)
		if errors.Is(err, domain.ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("roomRepo.Create: %w", err)
		}
		return room, nil
	}
	return nil, domain.ErrRoomExists
}

// GetRoom возвращает комнату по ID.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.roomRepo.Get(ctx, id)
}

func (s *RoomService) UpdateCode(ctx context.Context, id, code string) error {
	return s.roomRepo.UpdateCode(ctx, id, code)
}

func (s *RoomService) UpdateTask(ctx context.Context, id, task string, title *string) error {
	return s.roomRepo.UpdateTask(ctx, id, task, title)
}

func (s *RoomService) UpdateLanguage(ctx context.Context, id string, lang domain.Language) error {
	if !lang.Valid() {
		return domain.ErrInvalidLanguage
	}
	return s.roomRepo.UpdateLanguage(ctx, id, lang)
}
