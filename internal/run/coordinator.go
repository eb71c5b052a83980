// Package run связывает запуск кода с локальным отображением и рассылкой
// результата остальным участникам. Исполняет ровно один клиент, остальные
// только показывают пришедший output.
package run

import (
	"context"
	"sync/atomic"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/pkg/logger"
)

type Executor interface {
	Execute(ctx context.Context, code string, lang domain.Language) domain.ExecutionResult
}

type RoomState interface {
	Room() (domain.Room, bool)
	Ready() bool
	SetOutput(res domain.ExecutionResult)
}

type OutputBroadcaster interface {
	SendOutputUpdate(res domain.ExecutionResult)
}

type OutputSubscriber interface {
	OnOutput(fn func(domain.ExecutionResult))
}

type Coordinator struct {
	exec    Executor
	state   RoomState
	bc      OutputBroadcaster
	running atomic.Bool
}

func NewCoordinator(exec Executor, state RoomState, bc OutputBroadcaster) *Coordinator {
	return &Coordinator{exec: exec, state: state, bc: bc}
}

// Attach — результаты других участников показываются как есть, без перезапуска.
func (c *Coordinator) Attach(sub OutputSubscriber) {
	sub.OnOutput(c.state.SetOutput)
}

func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Run выполняет текущий буфер комнаты. Пока идёт запуск, повторный вызов
// возвращает ErrRunInProgress.
func (c *Coordinator) Run(ctx context.Context) (domain.ExecutionResult, error) {
	if !c.state.Ready() {
		return domain.ExecutionResult{}, domain.ErrNotReady
	}
	room, ok := c.state.Room()
	if !ok {
		return domain.ExecutionResult{}, domain.ErrNotReady
	}
	if !c.running.CompareAndSwap(false, true) {
		return domain.ExecutionResult{}, domain.ErrRunInProgress
	}
	defer c.running.Store(false)

	log := logger.FromCtx(ctx)
	log.Debug("run started", "room", room.ID, "language", room.Language)

	res := c.exec.Execute(ctx, room.Code, room.Language)

	log.Info("run finished",
		"room", room.ID,
		"language", room.Language,
		"duration_ms", res.ExecutionTimeMs,
		"failed", res.Failed(),
	)

	c.state.SetOutput(res)
	c.bc.SendOutputUpdate(res)
	return res, nil
}
