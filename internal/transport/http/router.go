package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/coderoom/internal/transport/http/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler     *Handler
	WS          http.HandlerFunc
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// WS endpoint: без Timeout/Compress, соединение долгоживущее
	if d.WS != nil {
		r.Get("/ws/rooms/{id}", d.WS)
	}

	r.Get("/health", d.Handler.Health)

	r.Group(func(pr chi.Router) {
		pr.Use(middlewareChi.Timeout(60 * time.Second))

		pr.Route("/api/rooms", func(rm chi.Router) {
			rm.Post("/", d.Handler.CreateRoom)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", d.Handler.GetRoom)
				rr.Put("/code", d.Handler.UpdateCode)
				rr.Put("/task", d.Handler.UpdateTask)
				rr.Put("/language", d.Handler.UpdateLanguage)
				rr.Get("/participants", d.Handler.GetParticipants)
				rr.Post("/execute", d.Handler.Execute)
			})
		})
	})

	return r
}
