package sandbox

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"golang.org/x/sync/singleflight"
)

const pythonGuestHome = "/python"

var ErrPythonNotConfigured = errors.New("python runtime is not configured")

// Loader возвращает байты python.wasm.
type Loader func(ctx context.Context) ([]byte, error)

func FileLoader(path string) Loader {
	return func(context.Context) ([]byte, error) {
		if path == "" {
			return nil, ErrPythonNotConfigured
		}
		return os.ReadFile(path)
	}
}

type interpreter struct {
	rt       wazero.Runtime
	compiled wazero.CompiledModule
}

type bootResult struct {
	in  *interpreter
	err error
}

// Python держит один скомпилированный интерпретатор на процесс. Первый вызов
// поднимает его, конкурентные первые вызовы ждут ту же операцию. Ошибка
// bootstrap тоже запоминается: повторной попытки нет.
type Python struct {
	loader Loader
	home   string

	group singleflight.Group
	boot  atomic.Pointer[bootResult]

	bootstraps atomic.Int32
}

func NewPython(loader Loader, home string) *Python {
	return &Python{loader: loader, home: home}
}

func (p *Python) ensure(ctx context.Context) (*interpreter, error) {
	if r := p.boot.Load(); r != nil {
		return r.in, r.err
	}

	ch := p.group.DoChan("python", func() (any, error) {
		if r := p.boot.Load(); r != nil {
			return r, nil
		}
		// отмена контекста одного вызывающего не должна ломать общий bootstrap
		in, err := p.bootstrap(context.WithoutCancel(ctx))
		r := &bootResult{in: in, err: err}
		p.boot.Store(r)
		return r, nil
	})

	select {
	case res := <-ch:
		r := res.Val.(*bootResult)
		return r.in, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Python) bootstrap(ctx context.Context) (*interpreter, error) {
	p.bootstraps.Add(1)
	start := time.Now()

	wasm, err := p.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("load python.wasm: %w", err)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile python.wasm: %w", err)
	}

	slog.Info("python interpreter ready", "took", time.Since(start).String())
	return &interpreter{rt: rt, compiled: compiled}, nil
}

func (p *Python) Execute(ctx context.Context, code string) domain.ExecutionResult {
	start := time.Now()

	in, err := p.ensure(ctx)
	if err != nil {
		return domain.ErrorResult("", "python runtime unavailable: "+err.Error(), elapsedMs(start))
	}

	var stdout, stderr strings.Builder
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs("python", "-c", buildDriver(code)).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithEnv("PYTHONDONTWRITEBYTECODE", "1").
		WithEnv("PYTHONIOENCODING", "utf-8").
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)
	if p.home != "" {
		cfg = cfg.
			WithEnv("PYTHONHOME", pythonGuestHome).
			WithFSConfig(wazero.NewFSConfig().WithReadOnlyDirMount(p.home, pythonGuestHome))
	}

	mod, runErr := in.rt.InstantiateModule(ctx, in.compiled, cfg)
	if mod != nil {
		_ = mod.Close(context.WithoutCancel(ctx))
	}
	ms := elapsedMs(start)

	output, errText := parseDriverOutput([]byte(stdout.String()), []byte(stderr.String()))
	if msg := exitMessage(ctx, runErr); msg != "" {
		if errText != "" {
			errText += "\n"
		}
		errText += msg
	}

	if errText == "" {
		return domain.ExecutionResult{Output: output, ExecutionTimeMs: ms}
	}
	return domain.ErrorResult(output, errText, ms)
}

func exitMessage(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 0:
			return ""
		case sys.ExitCodeDeadlineExceeded, sys.ExitCodeContextCanceled:
			return fmt.Sprintf("execution interrupted: %v", ctx.Err())
		default:
			return fmt.Sprintf("interpreter exited with code %d", exitErr.ExitCode())
		}
	}
	return err.Error()
}

// Bootstraps — сколько раз поднимался интерпретатор.
func (p *Python) Bootstraps() int {
	return int(p.bootstraps.Load())
}

func (p *Python) Close(ctx context.Context) error {
	r := p.boot.Load()
	if r == nil || r.in == nil {
		return nil
	}
	return r.in.rt.Close(ctx)
}
