package logger

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// instanceID отличает несколько roomd за одним балансировщиком и
// несколько CLI-клиентов на одной машине.
func instanceID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}

// processAttrs — поля, которые повторяются в каждой записи процесса.
func processAttrs(cfg Config) []slog.Attr {
	attrs := make([]slog.Attr, 0, 5)
	attrs = append(attrs,
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
	)
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	attrs = append(attrs,
		slog.String("instance_id", cfg.InstanceID),
		slog.String("pid", strconv.Itoa(os.Getpid())),
	)
	return attrs
}
