package run

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingExecutor struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
	got     []string
}

func (e *blockingExecutor) Execute(_ context.Context, code string, lang domain.Language) domain.ExecutionResult {
	e.mu.Lock()
	e.calls++
	e.got = append(e.got, string(lang)+":"+code)
	e.mu.Unlock()
	if e.release != nil {
		<-e.release
	}
	return domain.ExecutionResult{Output: "Hello\n", ExecutionTimeMs: 3}
}

type fakeState struct {
	mu     sync.Mutex
	room   *domain.Room
	output []domain.ExecutionResult
}

func (s *fakeState) Room() (domain.Room, bool) {
	if s.room == nil {
		return domain.Room{}, false
	}
	return *s.room, true
}

func (s *fakeState) Ready() bool { return s.room != nil }

func (s *fakeState) SetOutput(res domain.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, res)
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []domain.ExecutionResult
}

func (b *fakeBroadcaster) SendOutputUpdate(res domain.ExecutionResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, res)
}

type fakeSubscriber struct {
	output func(domain.ExecutionResult)
}

func (s *fakeSubscriber) OnOutput(fn func(domain.ExecutionResult)) { s.output = fn }

func TestCoordinator_RunStoresAndBroadcasts(t *testing.T) {
	exec := &blockingExecutor{}
	state := &fakeState{room: &domain.Room{ID: "room01", Code: "console.log('Hello')", Language: domain.LanguageJavaScript}}
	bc := &fakeBroadcaster{}
	c := NewCoordinator(exec, state, bc)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", res.Output)

	assert.Equal(t, []string{"javascript:console.log('Hello')"}, exec.got)
	assert.Equal(t, []domain.ExecutionResult{res}, state.output)
	assert.Equal(t, []domain.ExecutionResult{res}, bc.sent)
	assert.False(t, c.Running())
}

func TestCoordinator_RejectsOverlappingRun(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	state := &fakeState{room: &domain.Room{ID: "room01", Language: domain.LanguagePython}}
	c := NewCoordinator(exec, state, &fakeBroadcaster{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background())
		done <- err
	}()
	require.Eventually(t, c.Running, time.Second, time.Millisecond)

	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(exec.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, exec.calls)
}

func TestCoordinator_RequiresLoadedRoom(t *testing.T) {
	exec := &blockingExecutor{}
	bc := &fakeBroadcaster{}
	c := NewCoordinator(exec, &fakeState{}, bc)

	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.Zero(t, exec.calls)
	assert.Empty(t, bc.sent)
}

func TestCoordinator_PeerOutputIsDisplayedNotExecuted(t *testing.T) {
	exec := &blockingExecutor{}
	state := &fakeState{room: &domain.Room{ID: "room01"}}
	bc := &fakeBroadcaster{}
	c := NewCoordinator(exec, state, bc)

	sub := &fakeSubscriber{}
	c.Attach(sub)
	peer := domain.ErrorResult("", "Boom", 7)
	sub.output(peer)

	assert.Equal(t, []domain.ExecutionResult{peer}, state.output)
	assert.Zero(t, exec.calls)
	assert.Empty(t, bc.sent)
}
