// Package memory — хранилище комнат и участников в памяти процесса.
// Используется по умолчанию и в тестах.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

type RoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]domain.Room
	now   func() time.Time
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{rooms: make(map[string]domain.Room), now: time.Now}
}

func (r *RoomRepository) Create(_ context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return domain.ErrRoomExists
	}
	room.CreatedAt = r.now().UTC()
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *RoomRepository) Get(_ context.Context, id string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	out := rm.Clone()
	return &out, nil
}

func (r *RoomRepository) UpdateCode(_ context.Context, id, code string) error {
	return r.mutate(id, func(rm *domain.Room) { rm.Code = code })
}

func (r *RoomRepository) UpdateTask(_ context.Context, id, task string, title *string) error {
	return r.mutate(id, func(rm *domain.Room) {
		rm.Task = task
		if title != nil {
			t := *title
			rm.TaskTitle = &t
		}
	})
}

func (r *RoomRepository) UpdateLanguage(_ context.Context, id string, lang domain.Language) error {
	return r.mutate(id, func(rm *domain.Room) { rm.Language = lang })
}

func (r *RoomRepository) mutate(id string, fn func(*domain.Room)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	fn(&rm)
	r.rooms[id] = rm
	return nil
}
