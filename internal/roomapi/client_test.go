package roomapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/memory"
	"github.com/cwrk-planet/coderoom/internal/roomapi"
	"github.com/cwrk-planet/coderoom/internal/sandbox"
	"github.com/cwrk-planet/coderoom/internal/service"
	httpx "github.com/cwrk-planet/coderoom/internal/transport/http"
	"github.com/cwrk-planet/coderoom/internal/transport/http/httputil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *roomapi.Client {
	t.Helper()
	rooms := memory.NewRoomRepository()
	h := httpx.NewHandler(
		service.NewRoomService(rooms),
		service.NewMemberService(rooms, memory.NewParticipantRepository()),
		sandbox.New(sandbox.Config{}),
	)
	srv := httptest.NewServer(httpx.NewRouter(httpx.Deps{Handler: h}))
	t.Cleanup(srv.Close)

	c, err := roomapi.New(roomapi.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestClient_RoomLifecycle(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	room, err := c.CreateRoom(ctx, domain.LanguagePython)
	require.NoError(t, err)
	assert.Len(t, room.ID, 6)
	assert.False(t, room.CreatedAt.IsZero())

	require.NoError(t, c.UpdateCode(ctx, room.ID, "print(1)"))
	title := "Hello"
	require.NoError(t, c.UpdateTask(ctx, room.ID, "say hello", &title))
	require.NoError(t, c.UpdateLanguage(ctx, room.ID, domain.LanguageJavaScript))

	got, err := c.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", got.Code)
	assert.Equal(t, "say hello", got.Task)
	require.NotNil(t, got.TaskTitle)
	assert.Equal(t, "Hello", *got.TaskTitle)
	assert.Equal(t, domain.LanguageJavaScript, got.Language)

	parts, err := c.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestClient_NotFound(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.GetRoom(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.ErrorIs(t, c.UpdateCode(ctx, "nope00", "x"), domain.ErrRoomNotFound)
	_, err = c.ListParticipants(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestClient_Execute(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	room, err := c.CreateRoom(ctx, "")
	require.NoError(t, err)

	res, err := c.Execute(ctx, room.ID, `console.log("a", 1); return 2`, domain.LanguageJavaScript)
	require.NoError(t, err)
	assert.Nil(t, res.Error)
	assert.Equal(t, "a 1\n2", res.Output)
}

func TestClient_UpstreamErrors(t *testing.T) {
	var gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get(httputil.HeaderRequestID)
		httputil.Error(w, http.StatusServiceUnavailable, "db down")
	}))
	t.Cleanup(srv.Close)

	c, err := roomapi.New(roomapi.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx := httputil.WithRequestID(context.Background(), "req-1")
	err = c.UpdateCode(ctx, "room01", "x")
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, "req-1", gotReqID)

	srv.Close()
	_, err = c.GetRoom(context.Background(), "room01")
	assert.ErrorIs(t, err, domain.ErrUpstream)

	_, err = roomapi.New(roomapi.Options{})
	assert.Error(t, err)
}

func TestClient_EscapesRoomIDOnce(t *testing.T) {
	uris := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uris <- r.RequestURI
		httputil.Error(w, http.StatusNotFound, "room not found")
	}))
	t.Cleanup(srv.Close)

	c, err := roomapi.New(roomapi.Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.GetRoom(ctx, "a/b c")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, "/api/rooms/a%2Fb%20c", <-uris)

	assert.ErrorIs(t, c.UpdateCode(ctx, "a/b", "x"), domain.ErrRoomNotFound)
	assert.Equal(t, "/api/rooms/a%2Fb/code", <-uris)

	prefixed, err := roomapi.New(roomapi.Options{BaseURL: srv.URL + "/coderoom"})
	require.NoError(t, err)
	_, err = prefixed.ListParticipants(ctx, "room01")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, "/coderoom/api/rooms/room01/participants", <-uris)
}
