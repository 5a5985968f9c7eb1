package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/todo/internal/auth"
	"github.com/dukerupert/todo/internal/config"
	"github.com/dukerupert/todo/internal/database"
	"github.com/dukerupert/todo/internal/handler"
	"github.com/dukerupert/todo/internal/middleware"
	"github.com/dukerupert/todo/internal/service"
	"github.com/dukerupert/todo/internal/store"
	ws "github.com/dukerupert/todo/internal/websocket"
)

const rateLimitWindow = time.Minute

type Server struct {
	hub       *ws.Hub
	authH     *handler.AuthHandler
	taskH     *handler.TaskHandler
	adminH    *handler.AdminHandler
	userH     *handler.UserHandler
	healthH   *handler.HealthHandler
	tokens    *auth.TokenService
	limiter   middleware.Limiter
	rateLimit int
	clientIP  func(*http.Request) string
	registry  *prometheus.Registry
	metrics   *middleware.Metrics
	logger    *slog.Logger
}

// New wires stores, services and handlers on top of an open database.
// limiter backs the register and login rate limits.
func New(db *database.DB, cfg *config.Config, limiter middleware.Limiter, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.SecretKey),
		Algorithm: cfg.Algorithm,
		TTL:       cfg.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	hub := ws.NewHub(logger)

	accounts, err := service.NewAccountService(store.NewAccountStore(db), auth.NewHasher(cfg.BcryptCost), logger)
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	tasks := service.NewTaskService(store.NewTaskStore(db), hub, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewDBStatsCollector(db.DB, string(db.Dialect)),
	)

	httpLogger := logger.With("component", "http")
	return &Server{
		hub:       hub,
		authH:     handler.NewAuthHandler(accounts, tokens, httpLogger),
		taskH:     handler.NewTaskHandler(tasks, httpLogger),
		adminH:    handler.NewAdminHandler(tasks, httpLogger),
		userH:     handler.NewUserHandler(accounts, httpLogger),
		healthH:   handler.NewHealthHandler(db, httpLogger),
		tokens:    tokens,
		limiter:   limiter,
		rateLimit: cfg.RateLimit,
		clientIP:  middleware.ClientIP(cfg.TrustProxy),
		registry:  registry,
		metrics:   middleware.NewMetrics(registry),
		logger:    logger,
	}, nil
}

// Hub returns the websocket hub for task events.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /todo/user/register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /todo/login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("GET /health", s.healthH.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	// Authenticated routes
	mux.Handle("GET /todo/read-all", s.protected(s.taskH.ReadAll))
	mux.Handle("GET /todo/fetch-all", s.protected(s.taskH.FetchAll))
	mux.Handle("GET /todo/fetch/{id}", s.protected(s.taskH.Fetch))
	mux.Handle("POST /todo/create", s.protected(s.taskH.Create))
	mux.Handle("PUT /todo/update/{id}", s.protected(s.taskH.Update))
	mux.Handle("DELETE /todo/delete/{id}", s.protected(s.taskH.Delete))
	mux.Handle("GET /todo/users/fetch-all", s.protected(s.userH.Me))
	mux.Handle("PUT /todo/users/password", s.protected(s.userH.ChangePassword))
	mux.Handle("GET /todo/ws", s.protected(ws.HandleWebSocket(s.hub, nil)))

	// Admin routes
	mux.Handle("GET /todo/admin/fetch-all", s.admin(s.adminH.FetchAll))
	mux.Handle("DELETE /todo/admin/delete/{id}", s.admin(s.adminH.Delete))

	var h http.Handler = mux
	h = s.metrics.Instrument(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.RequestID(h)
}

func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return middleware.Authenticate(s.tokens, s.logger.With("component", "auth"))(h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middleware.Authenticate(s.tokens, s.logger.With("component", "auth"))(middleware.RequireAdmin(h))
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	// Register and login get separate budgets per client IP.
	keyFunc := func(r *http.Request) string {
		return r.Pattern + "|" + s.clientIP(r)
	}
	rl := middleware.RateLimit(s.limiter, keyFunc, s.rateLimit, rateLimitWindow, s.logger.With("component", "ratelimit"), s.metrics)
	return rl(h).ServeHTTP
}
