package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/proctored-quiz/internal/auth/middleware"
	"github.com/mind-engage/proctored-quiz/internal/integrity"
	"github.com/mind-engage/proctored-quiz/internal/session"
)

type Deps struct {
	Session     *session.Session
	Platform    *integrity.RemotePlatform
	Auth        *auth.AuthService
	Gate        *auth.EntryGate
	Log         *zap.Logger
	CORSOrigins []string
	Metrics     http.Handler                // nil leaves /metrics unmounted
	Ready       func(context.Context) error // nil reports always ready
}

func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/session/start", StartSessionHandler(d.Session, d.Auth, d.Gate))
	r.Get("/session", GetSessionHandler(d.Session))
	r.Post("/session/ack", AcknowledgeHandler(d.Session))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth, d.Session.UserID))

		pr.Get("/session/directives", DirectivesHandler(d.Session, d.Platform))
		pr.Get("/session/questions", QuestionsHandler(d.Session))
		pr.Post("/session/answers", ToggleAnswerHandler(d.Session))
		pr.Get("/session/stats", StatsHandler(d.Session))
		pr.Get("/session/correctness", CorrectnessHandler(d.Session))

		pr.Post("/session/submit", RequestSubmitHandler(d.Session))
		pr.Post("/session/submit/confirm", ConfirmSubmitHandler(d.Session))
		pr.Post("/session/submit/cancel", CancelSubmitHandler(d.Session))

		pr.Post("/session/events", PlatformEventHandler(d.Session, d.Platform))
		pr.Post("/session/resume", ResumeHandler(d.Session))
		pr.Post("/session/abandon", AbandonHandler(d.Session))
		pr.Post("/session/reset", ResetHandler(d.Session))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	return r
}
