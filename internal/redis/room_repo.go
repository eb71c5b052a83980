// Package redis хранит комнаты и участников в Redis (hash на комнату).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

type RoomRepository struct {
	client    *goredis.Client
	keyPrefix string
}

func NewRoomRepository(client *goredis.Client, keyPrefix string) *RoomRepository {
	if keyPrefix == "" {
		keyPrefix = "coderoom:"
	}
	return &RoomRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RoomRepository) roomKey(id string) string {
	return fmt.Sprintf("%sroom:%s", r.keyPrefix, id)
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	key := r.roomKey(room.ID)
	ok, err := r.client.HSetNX(ctx, key, "id", room.ID).Result()
	if err != nil {
		return fmt.Errorf("redis: create room %s: %w", room.ID, err)
	}
	if !ok {
		return domain.ErrRoomExists
	}

	room.CreatedAt = time.Now().UTC()
	fields := map[string]any{
		"code":       room.Code,
		"language":   string(room.Language),
		"task":       room.Task,
		"created_at": room.CreatedAt.Format(time.RFC3339Nano),
	}
	if room.TaskTitle != nil {
		fields["task_title"] = *room.TaskTitle
	}
	if err := r.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: create room %s: %w", room.ID, err)
	}
	return nil
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	m, err := r.client.HGetAll(ctx, r.roomKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get room %s: %w", id, err)
	}
	if len(m) == 0 {
		return nil, domain.ErrRoomNotFound
	}

	rm := domain.Room{
		ID:       id,
		Code:     m["code"],
		Language: domain.Language(m["language"]),
		Task:     m["task"],
	}
	if t, ok := m["task_title"]; ok {
		rm.TaskTitle = &t
	}
	if ts, err := time.Parse(time.RFC3339Nano, m["created_at"]); err == nil {
		rm.CreatedAt = ts
	}
	return &rm, nil
}

func (r *RoomRepository) UpdateCode(ctx context.Context, id, code string) error {
	return r.set(ctx, id, "code", code)
}

func (r *RoomRepository) UpdateTask(ctx context.Context, id, task string, title *string) error {
	values := []any{"task", task}
	if title != nil {
		values = append(values, "task_title", *title)
	}
	return r.set(ctx, id, values...)
}

func (r *RoomRepository) UpdateLanguage(ctx context.Context, id string, lang domain.Language) error {
	return r.set(ctx, id, "language", string(lang))
}

func (r *RoomRepository) set(ctx context.Context, id string, values ...any) error {
	key := r.roomKey(id)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis: update room %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrRoomNotFound
	}
	if err := r.client.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("redis: update room %s: %w", id, err)
	}
	return nil
}

type ParticipantRepository struct {
	client    *goredis.Client
	keyPrefix string
}

func NewParticipantRepository(client *goredis.Client, keyPrefix string) *ParticipantRepository {
	if keyPrefix == "" {
		keyPrefix = "coderoom:"
	}
	return &ParticipantRepository{client: client, keyPrefix: keyPrefix}
}

type participantRecord struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsOnline bool      `json:"isOnline"`
	JoinedAt time.Time `json:"joinedAt"`
	LastSeen time.Time `json:"lastSeen"`
}

func (r *ParticipantRepository) key(roomID string) string {
	return fmt.Sprintf("%sroom:%s:participants", r.keyPrefix, roomID)
}

func (r *ParticipantRepository) Add(ctx context.Context, p domain.Participant) error {
	return r.put(ctx, p.RoomID, participantRecord{
		ID: p.ID, Name: p.Name, IsOnline: p.IsOnline, JoinedAt: p.JoinedAt, LastSeen: p.LastSeen,
	})
}

func (r *ParticipantRepository) SetOnline(ctx context.Context, roomID, id string, online bool) error {
	raw, err := r.client.HGet(ctx, r.key(roomID), id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("redis: participant %s/%s: %w", roomID, id, err)
	}
	var rec participantRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("redis: participant %s/%s: %w", roomID, id, err)
	}
	rec.IsOnline = online
	rec.LastSeen = time.Now().UTC()
	return r.put(ctx, roomID, rec)
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	m, err := r.client.HGetAll(ctx, r.key(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: participants %s: %w", roomID, err)
	}

	out := make([]domain.Participant, 0, len(m))
	for _, raw := range m {
		var rec participantRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, domain.Participant{
			ID: rec.ID, RoomID: roomID, Name: rec.Name, IsOnline: rec.IsOnline,
			JoinedAt: rec.JoinedAt, LastSeen: rec.LastSeen,
		})
	}
	slices.SortFunc(out, func(a, b domain.Participant) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *ParticipantRepository) put(ctx context.Context, roomID string, rec participantRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key(roomID), rec.ID, b).Err(); err != nil {
		return fmt.Errorf("redis: participant %s/%s: %w", roomID, rec.ID, err)
	}
	return nil
}

// NewClient создаёт клиента и проверяет соединение.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}
