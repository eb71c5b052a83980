package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/memory"
	"github.com/cwrk-planet/coderoom/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayEnv struct {
	srv   *httptest.Server
	rooms *memory.RoomRepository
}

func newRelayEnv(t *testing.T) *relayEnv {
	t.Helper()

	rooms := memory.NewRoomRepository()
	require.NoError(t, rooms.Create(context.Background(), &domain.Room{ID: "room01", Language: domain.LanguageJavaScript}))

	s := NewServer(NewHub(),
		service.NewRoomService(rooms),
		service.NewMemberService(rooms, memory.NewParticipantRepository()),
		service.NewChatService(),
	)
	r := chi.NewRouter()
	r.Get("/ws/rooms/{id}", s.HandleWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &relayEnv{srv: srv, rooms: rooms}
}

func (e *relayEnv) dial(t *testing.T, roomID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/rooms/" + roomID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, f Frame) {
	t.Helper()
	data, err := Encode(f)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func read(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	f, err := Decode(data)
	require.NoError(t, err)
	return f
}

func TestRelay_JoinAndFanOut(t *testing.T) {
	env := newRelayEnv(t)

	a := env.dial(t, "room01")
	send(t, a, Join{Name: "Ann"})
	me, ok := read(t, a).(Me)
	require.True(t, ok)
	assert.Equal(t, "Ann", me.Name)
	assert.NotEmpty(t, me.ID)
	require.Len(t, read(t, a).(Participants).Participants, 1)

	b := env.dial(t, "room01")
	send(t, b, Join{Name: "Bob"})
	require.IsType(t, Me{}, read(t, b))
	require.Len(t, read(t, b).(Participants).Participants, 2)
	require.Len(t, read(t, a).(Participants).Participants, 2)

	// code_update -> code остальным, сохраняется в комнате
	send(t, a, CodeUpdate{Code: "x=1"})
	assert.Equal(t, Code{Code: "x=1"}, read(t, b))
	require.Eventually(t, func() bool {
		rm, err := env.rooms.Get(context.Background(), "room01")
		return err == nil && rm.Code == "x=1"
	}, time.Second, 10*time.Millisecond)

	// chat — всем, включая отправителя
	send(t, b, ChatMessage{Text: "hello", UserName: "Bob"})
	for _, c := range []*websocket.Conn{a, b} {
		chat, ok := read(t, c).(Chat)
		require.True(t, ok)
		assert.Equal(t, "hello", chat.Text)
		assert.NotEmpty(t, chat.Timestamp)
	}

	// output_update -> output остальным, без изменений
	send(t, a, OutputUpdate{Output: "Hello\n", ExecutionTime: 4})
	assert.Equal(t, Output{Output: "Hello\n", ExecutionTime: 4}, read(t, b))

	// отключение -> участник offline
	require.NoError(t, b.Close())
	parts := read(t, a).(Participants).Participants
	require.Len(t, parts, 2)
	assert.True(t, parts[0].IsOnline)
	assert.False(t, parts[1].IsOnline)
}

func TestRelay_IgnoresMalformedFrames(t *testing.T) {
	env := newRelayEnv(t)

	a := env.dial(t, "room01")
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"code_update"}`)))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`garbage`)))
	send(t, a, Join{Name: "Ann"})

	require.IsType(t, Me{}, read(t, a))
}

func TestRelay_UnknownRoom(t *testing.T) {
	env := newRelayEnv(t)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/rooms/nope00"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
