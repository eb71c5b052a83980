package service

import (
	"context"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/google/uuid"
)

type ParticipantRepository interface {
	Add(ctx context.Context, p domain.Participant) error
	SetOnline(ctx context.Context, roomID, id string, online bool) error
	ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error)
}

const defaultParticipantName = "Guest"

type MemberService struct {
	roomRepo        RoomRepository
	participantRepo ParticipantRepository
}

func NewMemberService(roomRepo RoomRepository, participantRepo ParticipantRepository) *MemberService {
	return &MemberService{roomRepo: roomRepo, participantRepo: participantRepo}
}

// JoinRoom регистрирует нового участника. Каждый join — новый участник с новым id.
func (s *MemberService) JoinRoom(ctx context.Context, roomID, name string) (domain.Participant, error) {
	if _, err := s.roomRepo.Get(ctx, roomID); err != nil {
		return domain.Participant{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultParticipantName
	}
	now := time.Now().UTC()
	p := domain.Participant{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		Name:     name,
		IsOnline: true,
		JoinedAt: now,
		LastSeen: now,
	}
	if err := s.participantRepo.Add(ctx, p); err != nil {
		return domain.Participant{}, err
	}
	return p, nil
}

func (s *MemberService) LeaveRoom(ctx context.Context, roomID, participantID string) error {
	return s.participantRepo.SetOnline(ctx, roomID, participantID, false)
}

func (s *MemberService) TouchHeartbeat(ctx context.Context, roomID, participantID string) error {
	return s.participantRepo.SetOnline(ctx, roomID, participantID, true)
}

func (s *MemberService) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	if _, err := s.roomRepo.Get(ctx, roomID); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByRoom(ctx, roomID)
}
