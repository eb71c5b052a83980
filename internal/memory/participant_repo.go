package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

type ParticipantRepository struct {
	mu    sync.RWMutex
	rooms map[string][]domain.Participant // порядок = порядок входа
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{rooms: make(map[string][]domain.Participant)}
}

func (r *ParticipantRepository) Add(_ context.Context, p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[p.RoomID] = append(r.rooms[p.RoomID], p)
	return nil
}

func (r *ParticipantRepository) SetOnline(_ context.Context, roomID, id string, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps := r.rooms[roomID]
	for i := range ps {
		if ps[i].ID == id {
			ps[i].IsOnline = online
			ps[i].LastSeen = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (r *ParticipantRepository) ListByRoom(_ context.Context, roomID string) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.Participant(nil), r.rooms[roomID]...), nil
}
