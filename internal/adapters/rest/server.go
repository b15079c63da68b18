package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"listing-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server - REST API сервис объявлений.
type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

// NewRouter собирает маршруты; вынесен отдельно для тестов.
func NewRouter(properties *PropertyHandler, search *SearchHandler, baseLogger port.LoggerPort, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "")
	})

	r.Route("/api/v1/properties", func(r chi.Router) {
		// публичные маршруты
		r.Get("/", search.SearchProperties)
		r.Get("/amenities", search.ListAmenities)
		r.Get("/{id}", properties.GetPropertyByID)

		// пользователь определяется API Gateway
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware)

			r.Post("/", properties.CreateProperty)
			r.Get("/owner/{ownerId}", search.GetPropertiesByOwner)
			r.Put("/{id}", properties.UpdateProperty)
			r.Delete("/{id}", properties.DeleteProperty)
			r.Patch("/{id}/availability", properties.UpdateAvailability)
			r.Patch("/{id}/status", properties.UpdateStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func NewServer(listenPort string, properties *PropertyHandler, search *SearchHandler, baseLogger port.LoggerPort, allowedOrigins []string) *Server {
	srv := &http.Server{
		Addr:              ":" + listenPort,
		Handler:           NewRouter(properties, search, baseLogger, allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{
		httpServer: srv,
		logger:     baseLogger.WithFields(port.Fields{"component": "rest_server"}),
	}
}

// Start блокируется до остановки сервера.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
