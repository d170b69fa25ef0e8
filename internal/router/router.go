package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folder-explorer/internal/config"
	"folder-explorer/internal/handler"
	"folder-explorer/internal/middleware"
	"folder-explorer/internal/websocket"
)

type Handlers struct {
	Folder *handler.FolderHandler
	File   *handler.FileHandler
	Event  *handler.EventHandler
	Search *handler.SearchHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, handlers Handlers, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", handlers.Health.Live)
	r.Get("/health/ready", handlers.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/folders", func(folders chi.Router) {
			folders.Post("/", handlers.Folder.Create)
			folders.Get("/tree", handlers.Folder.Tree)
			folders.Get("/{folder_id}", handlers.Folder.Get)
			folders.Put("/{folder_id}", handlers.Folder.Update)
			folders.Put("/{folder_id}/move", handlers.Folder.Move)
			folders.Delete("/{folder_id}", handlers.Folder.Delete)
			folders.Get("/{folder_id}/children", handlers.Folder.Children)
			folders.Get("/{folder_id}/files", handlers.File.ListByFolder)
		})

		api.Route("/files", func(files chi.Router) {
			files.Post("/", handlers.File.Create)
			files.Get("/{file_id}", handlers.File.Get)
			files.Put("/{file_id}", handlers.File.Update)
			files.Delete("/{file_id}", handlers.File.Delete)
		})

		api.Route("/events", func(events chi.Router) {
			events.Get("/", handlers.Event.ListByEntity)
			events.Get("/pending", handlers.Event.ListPending)
			events.Get("/stats", handlers.Event.Stats)
			events.Delete("/old", handlers.Event.DeleteOld)
			events.Get("/{event_id}", handlers.Event.GetStatus)
		})

		api.Get("/search", handlers.Search.Search)
	})

	return r
}
