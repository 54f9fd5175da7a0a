package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vidfetch/orchestrator/internal/config"
	"github.com/vidfetch/orchestrator/internal/job"
	"github.com/vidfetch/orchestrator/internal/media"
)

func NewRouter(cfg *config.Config, store *job.Store, fetcher media.MetadataFetcher, runner JobRunner, mergeCapable func() bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	h := NewHandlers(cfg, store, fetcher, runner, mergeCapable)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/video-info", h.VideoInfo)
		r.Post("/download", h.Download)
		r.Get("/download-status/{id}", h.DownloadStatus)
		r.Get("/system-info", h.SystemInfo)
	})

	return r
}
