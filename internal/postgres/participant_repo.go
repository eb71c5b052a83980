package postgres

import (
	"context"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Add(ctx context.Context, p domain.Participant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO room_participants (id, room_id, name, is_online, joined_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.RoomID, p.Name, p.IsOnline, p.JoinedAt, p.LastSeen)
	return err
}

// SetOnline обновляет флаг присутствия и last_seen.
func (r *ParticipantRepository) SetOnline(ctx context.Context, roomID, id string, online bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE room_participants
		SET is_online = $3, last_seen = now()
		WHERE room_id = $1 AND id = $2
	`, roomID, id, online)
	return err
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_id, name, is_online, joined_at, last_seen
		FROM room_participants
		WHERE room_id = $1
		ORDER BY joined_at, id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Name, &p.IsOnline, &p.JoinedAt, &p.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
