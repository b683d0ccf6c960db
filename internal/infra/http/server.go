package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-drop-bot/internal/domain/ports/repository"
	"telegram-drop-bot/internal/usecase"
)

// Server exposes health, metrics and a read-only bearer-key admin API, and
// mounts the Telegram webhook handler in webhook mode.
type Server struct {
	catalogUC *usecase.CatalogUseCase
	ledger    repository.DeliveryLedger
	apiKey    string
	log       *zerolog.Logger

	router *chi.Mux
	server *http.Server
}

func NewServer(catalogUC *usecase.CatalogUseCase, ledger repository.DeliveryLedger, apiKey string, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	s := &Server{
		catalogUC: catalogUC,
		ledger:    ledger,
		apiKey:    apiKey,
		log:       &l,
		router:    chi.NewRouter(),
	}
	s.routes(logger)
	return s
}

func (s *Server) routes(logger *zerolog.Logger) {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return s.authMiddleware(next) })
		r.Get("/items", s.handleListItems)
		r.Get("/deliveries", s.handleListDeliveries)
	})
}

// MountWebhook attaches the Telegram webhook handler at path.
func (s *Server) MountWebhook(path string, h http.Handler) {
	s.router.Method(http.MethodPost, path, h)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler(logger *zerolog.Logger) http.Handler {
	return Chain(s.router, TraceID(), RequestLog(logger), Recover(logger))
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(port int, logger *zerolog.Logger) error {
	handler := s.Handler(logger)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}
		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type itemDTO struct {
	Key            string    `json:"key"`
	Title          string    `json:"title"`
	RetentionHours int       `json:"retention_hours"`
	AddedAt        time.Time `json:"added_at"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalogUC.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list items failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, itemDTO{
			Key:            it.Key,
			Title:          it.Title,
			RetentionHours: it.RetentionHours,
			AddedAt:        it.AddedAt,
		})
	}
	writeJSON(w, out)
}

type deliveryDTO struct {
	ID          string    `json:"id"`
	ChatID      int64     `json:"chat_id"`
	SourceKey   string    `json:"source_key"`
	DeliveredAt time.Time `json:"delivered_at"`
	ExpireAt    time.Time `json:"expire_at"`
}

func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	recs, err := s.ledger.ListAll(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list deliveries failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]deliveryDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, deliveryDTO{
			ID:          rec.ID,
			ChatID:      rec.ChatID,
			SourceKey:   rec.SourceKey,
			DeliveredAt: rec.DeliveredAt,
			ExpireAt:    rec.ExpireAt,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
