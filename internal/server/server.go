package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-lot-manager/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port string, handler *Handler) *Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func NewRouter(handler *Handler) chi.Router {
	r := chi.NewRouter()

	// Tracing goes first so request logs and recovered panics see the span.
	r.Use(TracingMiddleware(handler.serviceName))
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Post("/park", handler.ParkVehicle)
		r.Post("/exit", handler.ExitVehicle)
		r.Post("/settle", handler.Settle)
		r.Post("/fines/{plate}/pay", handler.PayFines)
		r.Get("/quote/{plate}", handler.Quote)
		r.Get("/fine-strategy", handler.GetFineStrategy)
		r.Put("/fine-strategy", handler.SetFineStrategy)
		r.Get("/spots", handler.GetSpots)
		r.Get("/spots/{id}", handler.GetSpot)
		r.Get("/tickets", handler.GetTickets)
		r.Get("/tickets/{plate}", handler.GetTicket)
		r.Get("/history", handler.GetHistory)
		r.Get("/occupancy", handler.GetOccupancy)
		r.Get("/revenue", handler.GetRevenue)
		r.Get("/fines", handler.GetOutstandingFines)
	})

	return r
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
