package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Нужен живой postgres: CODEROOM_TEST_POSTGRES_DSN=postgres://...
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("CODEROOM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CODEROOM_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, dsn, WithApplicationName("coderoom-test"), WithMaxConns(2))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	// повторная миграция безопасна
	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Ping(ctx, pool))
	return pool
}

func TestRoomRepository_Postgres(t *testing.T) {
	pool := newTestPool(t)
	rooms := NewRoomRepository(pool)
	ctx := context.Background()

	id := uuid.NewString()[:6]
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM rooms WHERE id = $1`, id) })

	room := &domain.Room{ID: id, Code: "x=1", Language: domain.LanguagePython}
	require.NoError(t, rooms.Create(ctx, room))
	assert.False(t, room.CreatedAt.IsZero())
	assert.ErrorIs(t, rooms.Create(ctx, &domain.Room{ID: id, Language: domain.LanguagePython}), domain.ErrRoomExists)

	title := "Sum"
	require.NoError(t, rooms.UpdateCode(ctx, id, "x=2"))
	require.NoError(t, rooms.UpdateTask(ctx, id, "add numbers", &title))
	require.NoError(t, rooms.UpdateTask(ctx, id, "add two numbers", nil))
	require.NoError(t, rooms.UpdateLanguage(ctx, id, domain.LanguageJavaScript))

	got, err := rooms.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "x=2", got.Code)
	assert.Equal(t, "add two numbers", got.Task)
	require.NotNil(t, got.TaskTitle)
	assert.Equal(t, "Sum", *got.TaskTitle)
	assert.Equal(t, domain.LanguageJavaScript, got.Language)

	_, err = rooms.Get(ctx, "nope-"+id)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.ErrorIs(t, rooms.UpdateCode(ctx, "nope-"+id, "x"), domain.ErrRoomNotFound)

	parts := NewParticipantRepository(pool)
	now := time.Now().UTC()
	require.NoError(t, parts.Add(ctx, domain.Participant{ID: uuid.NewString(), RoomID: id, Name: "Ann", IsOnline: true, JoinedAt: now, LastSeen: now}))
	list, err := parts.ListByRoom(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, parts.SetOnline(ctx, id, list[0].ID, false))

	list, err = parts.ListByRoom(ctx, id)
	require.NoError(t, err)
	assert.False(t, list[0].IsOnline)
}
