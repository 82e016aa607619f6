package server

import (
	"net/http"

	"github.com/candlelight-labs/sift/internal/api"
	"github.com/candlelight-labs/sift/internal/api/handlers"
	"github.com/candlelight-labs/sift/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator     middleware.AuthValidator
	DeepSearchHandler *handlers.DeepSearchHandler
	CacheHandler      *handlers.CacheHandler
	HistoryHandler    *handlers.HistoryHandler
	AuthHandler       *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/deep-search", cfg.DeepSearchHandler.Search)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", cfg.CacheHandler.Stats)
			r.Delete("/", cfg.CacheHandler.Clear)
		})

		r.Get("/searches", cfg.HistoryHandler.List)
	})

	r.Post("/users", cfg.AuthHandler.CreateUser)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
