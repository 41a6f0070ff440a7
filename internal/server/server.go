// Package server exposes edit sessions over HTTP and socket.io.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/internal/config"
)

// Server is the retouch HTTP service.
type Server struct {
	cfg      *config.Config
	recent   retouch.RecentStore
	engine   *retouch.FilterEngine
	comp     *retouch.Compositor
	sessions *Registry
	io       *socketio.Server
	router   *chi.Mux
}

// New builds a server that keeps recent edits in recent.
func New(cfg *config.Config, recent retouch.RecentStore) (*Server, error) {
	opts, err := cfg.Session.Options()
	if err != nil {
		return nil, err
	}
	engine := retouch.NewFilterEngine(retouch.WithWorkers(cfg.Session.Workers))
	comp := retouch.NewCompositor()
	opts = append(opts, retouch.WithEngine(engine), retouch.WithCompositor(comp))

	notifier := &socketNotifier{}
	s := &Server{
		cfg:      cfg,
		recent:   recent,
		engine:   engine,
		comp:     comp,
		sessions: NewRegistry(notifier, opts...),
	}
	s.io = setupSocketIO(cfg.Server.AllowedOrigins, s.sessions.Has)
	notifier.io = s.io
	s.router = s.setupRouter()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session registry.
func (s *Server) Sessions() *Registry { return s.sessions }

// Close closes the sessions, the socket.io server and the filter engine.
func (s *Server) Close() {
	s.sessions.Close()
	s.io.Close(nil)
	s.engine.Close()
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/preview", s.handlePreview)
			r.Get("/export", s.handleExport)
			r.Post("/filter", s.handleFilter)
			r.Post("/strokes", s.handleAddStroke)
			r.Delete("/strokes", s.handleClearStrokes)
			r.Post("/texts", s.handleAddText)
			r.Patch("/texts/{tid}", s.handleUpdateText)
			r.Delete("/texts/{tid}", s.handleRemoveText)
			r.Post("/transform", s.handleTransform)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/reset", s.handleReset)
			r.Post("/image", s.handleLoadImage)
			r.Post("/recent", s.handleSaveRecent)
		})
		r.Get("/filters", s.handleListFilters)
		r.Get("/fonts", s.handleListFonts)
		r.Route("/recent", func(r chi.Router) {
			r.Get("/", s.handleListRecent)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.handleDeleteRecent)
				r.Get("/thumbnail", s.handleRecentImage(thumbnailOf))
				r.Get("/original", s.handleRecentImage(originalOf))
				r.Get("/edited", s.handleRecentImage(editedOf))
				r.Post("/open", s.handleOpenRecent)
			})
		})
	})

	r.Handle("/socket.io/", s.io.ServeHandler(nil))
	return r
}
