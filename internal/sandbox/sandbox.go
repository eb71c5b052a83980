// Package sandbox выполняет код участника в изоляции и нормализует результат
// в domain.ExecutionResult. Два бэкенда: JavaScript (goja, новый VM на каждый
// запуск) и Python (WASI-интерпретатор под wazero, компилируется один раз).
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

// Executor не сериализует параллельные вызовы: за это отвечает вызывающий.
type Executor interface {
	Execute(ctx context.Context, code string, lang domain.Language) domain.ExecutionResult
}

type Config struct {
	PythonWasm string        // путь к python.wasm
	PythonHome string        // каталог стандартной библиотеки на хосте
	Timeout    time.Duration // 0 — без ограничения
}

type Sandbox struct {
	js      *JavaScript
	py      *Python
	timeout time.Duration
}

type Option func(*Sandbox)

// WithPython подменяет Python-бэкенд (например, с другим загрузчиком).
func WithPython(py *Python) Option {
	return func(s *Sandbox) { s.py = py }
}

func New(cfg Config, opts ...Option) *Sandbox {
	s := &Sandbox{
		js:      NewJavaScript(),
		py:      NewPython(FileLoader(cfg.PythonWasm), cfg.PythonHome),
		timeout: cfg.Timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sandbox) Execute(ctx context.Context, code string, lang domain.Language) domain.ExecutionResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch lang {
	case domain.LanguageJavaScript:
		return s.js.Execute(ctx, code)
	case domain.LanguagePython:
		return s.py.Execute(ctx, code)
	default:
		return domain.ErrorResult("", fmt.Sprintf("unsupported language %q", lang), 0)
	}
}

// Warmup заранее поднимает Python-интерпретатор.
func (s *Sandbox) Warmup(ctx context.Context) error {
	_, err := s.py.ensure(ctx)
	return err
}

func (s *Sandbox) Close(ctx context.Context) error {
	return s.py.Close(ctx)
}

func elapsedMs(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
