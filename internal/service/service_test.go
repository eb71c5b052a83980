package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomID(t *testing.T) {
	for range 50 {
		id, err := NewRoomID()
		require.NoError(t, err)
		require.Len(t, id, 6)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(roomIDAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestRoomService_CreateRoom(t *testing.T) {
	ctx := context.Background()
	svc := NewRoomService(memory.NewRoomRepository())

	room, err := svc.CreateRoom(ctx, domain.LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, domain.LanguagePython, room.Language)
	assert.Equal(t, domain.StarterTemplate(domain.LanguagePython), room.Code)

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)

	_, err = svc.CreateRoom(ctx, "cobol")
	assert.ErrorIs(t, err, domain.ErrInvalidLanguage)
}

func TestRoomService_CreateRoomRetriesCollision(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRoomRepository()
	require.NoError(t, repo.Create(ctx, &domain.Room{ID: "aaaaaa"}))

	ids := []string{"aaaaaa", "bbbbbb"}
	svc := NewRoomService(repo)
	svc.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	room, err := svc.CreateRoom(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbb", room.ID)
	assert.Equal(t, domain.LanguageJavaScript, room.Language)
}

func TestMemberService_JoinLeave(t *testing.T) {
	ctx := context.Background()
	rooms := memory.NewRoomRepository()
	require.NoError(t, rooms.Create(ctx, &domain.Room{ID: "room01"}))
	svc := NewMemberService(rooms, memory.NewParticipantRepository())

	p, err := svc.JoinRoom(ctx, "room01", "  ")
	require.NoError(t, err)
	assert.Equal(t, "Guest", p.Name)
	assert.NotEmpty(t, p.ID)

	require.NoError(t, svc.LeaveRoom(ctx, "room01", p.ID))
	ps, err := svc.ListParticipants(ctx, "room01")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.False(t, ps[0].IsOnline)

	_, err = svc.JoinRoom(ctx, "nope00", "Ann")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestChatService_Compose(t *testing.T) {
	svc := NewChatService()
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	msg, err := svc.Compose("Ann", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "2024-05-01T10:00:00Z", msg.Timestamp)

	_, err = svc.Compose("Ann", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = svc.Compose("Ann", strings.Repeat("a", domain.MaxChatMessageLen+1))
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)
}
