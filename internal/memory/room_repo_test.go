package memory

import (
	"context"
	"testing"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRepository_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewRoomRepository()

	room := &domain.Room{ID: "abc123", Code: "x", Language: domain.LanguageJavaScript}
	require.NoError(t, repo.Create(ctx, room))
	assert.False(t, room.CreatedAt.IsZero())
	assert.ErrorIs(t, repo.Create(ctx, &domain.Room{ID: "abc123"}), domain.ErrRoomExists)

	title := "Two sum"
	require.NoError(t, repo.UpdateCode(ctx, "abc123", "y"))
	require.NoError(t, repo.UpdateTask(ctx, "abc123", "desc", &title))
	require.NoError(t, repo.UpdateLanguage(ctx, "abc123", domain.LanguagePython))

	got, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "y", got.Code)
	assert.Equal(t, "desc", got.Task)
	require.NotNil(t, got.TaskTitle)
	assert.Equal(t, "Two sum", *got.TaskTitle)
	assert.Equal(t, domain.LanguagePython, got.Language)

	// изменения возвращённой копии не протекают в хранилище
	*got.TaskTitle = "mutated"
	again, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Two sum", *again.TaskTitle)
}

func TestRoomRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewRoomRepository()

	_, err := repo.Get(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.ErrorIs(t, repo.UpdateCode(ctx, "nope00", "x"), domain.ErrRoomNotFound)
}

func TestParticipantRepository_Presence(t *testing.T) {
	ctx := context.Background()
	repo := NewParticipantRepository()

	require.NoError(t, repo.Add(ctx, domain.Participant{ID: "1", RoomID: "r", Name: "Ann", IsOnline: true}))
	require.NoError(t, repo.Add(ctx, domain.Participant{ID: "2", RoomID: "r", Name: "Bob", IsOnline: true}))
	require.NoError(t, repo.SetOnline(ctx, "r", "1", false))

	ps, err := repo.ListByRoom(ctx, "r")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Ann", ps[0].Name)
	assert.False(t, ps[0].IsOnline)
	assert.True(t, ps[1].IsOnline)
}
