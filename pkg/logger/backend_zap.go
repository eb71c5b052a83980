package logger

import (
	"log/slog"
	"time"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultSampleInitial    = 100
	defaultSampleThereafter = 10
)

func newZapHandler(cfg Config) slog.Handler {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapEncoderConfig(cfg.AddSource)),
		zapcore.AddSync(cfg.Output),
		zapLevel(effectiveLevel(cfg)),
	)

	// relay при активной печати шлёт update_code на каждое нажатие,
	// одинаковые записи за секунду прореживаем
	first, next := cfg.SampleInitial, cfg.SampleThereafter
	if first <= 0 {
		first = defaultSampleInitial
	}
	if next <= 0 {
		next = defaultSampleThereafter
	}
	core = zapcore.NewSamplerWithOptions(core, time.Second, first, next)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}
	return slogzap.Option{Logger: zap.New(core, opts...)}.NewZapHandler()
}

func zapEncoderConfig(withCaller bool) zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	if withCaller {
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	} else {
		enc.CallerKey = zapcore.OmitKey
	}
	return enc
}

// zapLevel: шаг уровней в slog равен 4, в zap единице.
func zapLevel(lvl slog.Level) zapcore.Level {
	z := zapcore.Level(lvl / 4)
	if z < zapcore.DebugLevel {
		return zapcore.DebugLevel
	}
	if z > zapcore.ErrorLevel {
		return zapcore.ErrorLevel
	}
	return z
}
