package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (id, code, language, task, task_title)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query, room.ID, room.Code, string(room.Language), room.Task, room.TaskTitle).
		Scan(&room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRoomExists
	}
	return err
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	var (
		rm   domain.Room
		lang string
	)
	query := `SELECT id, code, language, task, task_title, created_at FROM rooms WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&rm.ID, &rm.Code, &lang, &rm.Task, &rm.TaskTitle, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	rm.Language = domain.Language(lang)
	return &rm, nil
}

func (r *RoomRepository) UpdateCode(ctx context.Context, id, code string) error {
	return r.update(ctx, `UPDATE rooms SET code=$2 WHERE id=$1`, id, code)
}

func (r *RoomRepository) UpdateTask(ctx context.Context, id, task string, title *string) error {
	return r.update(ctx, `UPDATE rooms SET task=$2, task_title=COALESCE($3, task_title) WHERE id=$1`, id, task, title)
}

func (r *RoomRepository) UpdateLanguage(ctx context.Context, id string, lang domain.Language) error {
	return r.update(ctx, `UPDATE rooms SET language=$2 WHERE id=$1`, id, string(lang))
}

func (r *RoomRepository) update(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
