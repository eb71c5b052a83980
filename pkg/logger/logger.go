// Package logger настраивает slog для roomd и coderoom: текст в dev,
// JSON через zap в остальных средах, trace_id из контекста.
package logger

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

// Init собирает handler по Config, ставит его в slog.SetDefault и запоминает
// для L. Повторный вызов заменяет логгер целиком.
func Init(cfg Config) *slog.Logger {
	cfg = cfg.withDefaults()

	var h slog.Handler
	if cfg.Backend == BackendZap {
		h = newZapHandler(cfg)
	} else {
		h = newStdHandler(cfg)
	}

	l := slog.New(h.WithAttrs(processAttrs(cfg)))
	slog.SetDefault(l)
	current.Store(l)
	return l
}

func (c Config) withDefaults() Config {
	if c.Env == "" {
		c.Env = DetectEnv()
	}
	if c.Service == "" {
		c.Service = "coderoom"
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Backend == "" {
		c.Backend = BackendZap
		if c.Env.Interactive() {
			c.Backend = BackendStd
		}
	}
	c.InstanceID = instanceID(c.InstanceID)
	return c
}

// L возвращает логгер из Init; до Init поднимает конфигурацию по умолчанию.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return Init(Config{})
}
