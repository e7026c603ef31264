package api

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"

	"github.com/mcoot/redblue/internal/api/apierr"
	"github.com/mcoot/redblue/internal/api/handler"
	"github.com/mcoot/redblue/internal/api/middleware"
	"github.com/mcoot/redblue/internal/api/response"
	"github.com/mcoot/redblue/internal/archive"
	"github.com/mcoot/redblue/internal/metrics"
	"github.com/mcoot/redblue/internal/ratelimit"
	"github.com/mcoot/redblue/internal/services/auth"
	"github.com/mcoot/redblue/internal/services/game"
	"github.com/mcoot/redblue/internal/services/lobby"
	"github.com/mcoot/redblue/internal/services/presence"
)

// Route names used as rate limit keys
const (
	RouteCreate = "game/create"
	RouteJoin   = "game/join"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	AuthService     *auth.Service
	LobbyController *lobby.Controller
	GameController  *game.Controller
	Presence        *presence.Monitor
	Archive         archive.Archiver
	Limiter         ratelimit.Limiter
	// TrustedProxies may set X-Forwarded-For for rate limiting
	TrustedProxies []netip.Prefix
	// WebSocket serves ws/game/{id}. Nil leaves the route out.
	WebSocket http.Handler
}

// NewRouter creates a new router with the API, WebSocket and metrics routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	ips := middleware.NewIPResolver(cfg.TrustedProxies)

	// Create handlers
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyController)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Presence, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.AuthService, cfg.LobbyController, cfg.Archive)

	// Create middleware
	playerAuth := middleware.PlayerAuth(cfg.AuthService)
	adminAuth := middleware.AdminAuth(cfg.AuthService)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	api := r.PathPrefix("/api/v1").Subrouter()

	// Matchmaking (no auth, rate limited)
	api.Handle("/game/create", middleware.RateLimit(limiter, RouteCreate, ips, cfg.Metrics)(http.HandlerFunc(lobbyHandler.Create))).Methods(http.MethodPost)
	api.Handle("/game/join", middleware.RateLimit(limiter, RouteJoin, ips, cfg.Metrics)(http.HandlerFunc(lobbyHandler.Join))).Methods(http.MethodPost)
	api.HandleFunc("/games/public", lobbyHandler.ListPublic).Methods(http.MethodGet)

	// Player routes (token scoped to {id})
	games := api.PathPrefix("/game/{id}").Subrouter()
	games.Use(playerAuth)
	games.HandleFunc("", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/round/{round}/choice", gameHandler.Choose).Methods(http.MethodPost)
	games.HandleFunc("/abandon", gameHandler.Abandon).Methods(http.MethodPost)
	games.HandleFunc("/change_visibility", lobbyHandler.ChangeVisibility).Methods(http.MethodPost)
	games.HandleFunc("/delete", lobbyHandler.Delete).Methods(http.MethodDelete)

	// Admin routes
	api.HandleFunc("/admin/login", adminHandler.Login).Methods(http.MethodPost)
	api.Handle("/games", adminAuth(http.HandlerFunc(adminHandler.ListGames))).Methods(http.MethodGet)
	api.Handle("/admin/cleanup", adminAuth(http.HandlerFunc(adminHandler.Cleanup))).Methods(http.MethodPost)
	api.Handle("/admin/history", adminAuth(http.HandlerFunc(adminHandler.History))).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.WebSocket != nil {
		r.Handle("/ws/game/{id}", cfg.WebSocket).Methods(http.MethodGet)
	}
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteError(w, apierr.NewNotFoundError())
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
