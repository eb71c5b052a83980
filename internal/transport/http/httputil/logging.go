package httputil

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const maxLoggedBody = 2 << 10

var tracer = otel.Tracer("github.com/cwrk-planet/coderoom/http")

// MiddlewareLogging открывает span на запрос и логирует метод, путь, статус,
// длительность, X-Request-ID и (для json) укороченные тела запроса/ответа.
func MiddlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		r = r.WithContext(ctx)

		var reqBody string
		if isJSON(r.Header.Get("Content-Type")) && r.Body != nil {
			var buf bytes.Buffer
			b, _ := io.ReadAll(io.TeeReader(r.Body, &buf))
			r.Body = io.NopCloser(&buf)
			reqBody = clip(b)
		}

		lrw := &logResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)

		reqID, _ := FromContext(ctx)
		span.SetAttributes(
			attribute.String("http.request_id", reqID),
			attribute.Int("http.status_code", lrw.status),
		)

		args := []any{
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.status,
			"bytes", lrw.bytes,
			"duration", time.Since(start).String(),
		}
		if reqBody != "" {
			args = append(args, "req_body", reqBody)
		}
		if isJSON(lrw.Header().Get("Content-Type")) {
			args = append(args, "resp_body", clip(lrw.body.Bytes()))
		}
		args = append(args, logger.ArgsFromCtx(ctx)...)

		lvl := slog.LevelInfo
		if lrw.status >= http.StatusInternalServerError {
			lvl = slog.LevelError
		}
		slog.Log(ctx, lvl, "http request", args...)
	})
}

func isJSON(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "json")
}

func clip(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "..."
	}
	return strings.TrimSpace(string(b))
}

type logResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
}

func (w *logResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n

	return n, err
}

// Hijack нужен websocket.Upgrader: /ws/rooms/{id} идёт через этот же middleware.
func (w *logResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijack")
	}
	if w.status == 0 {
		w.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}
