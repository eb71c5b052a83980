package httputil

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// длиннее не принимаем: id попадает в каждую запись лога
const maxRequestIDLen = 128

type reqIDKey struct{}

// MiddlewareRequestID берёт X-Request-ID клиента (coderoom CLI шлёт свой)
// или выдаёт новый uuid, и возвращает его в ответе.
func MiddlewareRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reqIDKey{}, id)
}

func FromContext(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id, id != ""
}
