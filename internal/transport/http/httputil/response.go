package httputil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// JSON сначала кодирует тело, потом пишет заголовки: при ошибке кодирования
// клиент получит 500, а не обрезанный 200.
func JSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if v != nil {
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			slog.Error("encode json response failed", slog.Any("err", err))
			status = http.StatusInternalServerError
			buf.Reset()
			buf.WriteString(`{"error":"internal error"}` + "\n")
		}
	}
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Error пишет {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}
