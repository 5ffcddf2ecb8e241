package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/studyowl/studyowl/internal/api/handlers"
	appMiddleware "github.com/studyowl/studyowl/internal/api/middlewares"
	"github.com/studyowl/studyowl/internal/chat"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/core"
	"github.com/studyowl/studyowl/internal/core/ingest"
	"github.com/studyowl/studyowl/internal/models"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dbClient core.DbClient, obj core.ObjectClient, pipeline *ingest.Pipeline, sessions *chat.SessionStore) *Server {
	authHandler := handlers.NewAuthHandler(dbClient)
	kbHandler := handlers.NewKnowledgeBaseHandler(pipeline, obj, sessions, cfg)
	chatHandler := handlers.NewChatHandler(sessions, dbClient)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)

			protected.Post("/chat/ask", chatHandler.Ask)
			protected.Delete("/chat/session", chatHandler.EndSession)

			// educator-only endpoints
			protected.Group(func(educator chi.Router) {
				educator.Use(appMiddleware.RequireRole(models.RoleEducator))
				educator.Post("/kb/upload", kbHandler.Upload)
				educator.Get("/chat/logs", chatHandler.ListLogs)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
