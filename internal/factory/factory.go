package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/redblue/internal/api"
	"github.com/mcoot/redblue/internal/archive"
	"github.com/mcoot/redblue/internal/archive/postgres"
	"github.com/mcoot/redblue/internal/archive/sqlite"
	"github.com/mcoot/redblue/internal/config"
	"github.com/mcoot/redblue/internal/dependencies/clock"
	"github.com/mcoot/redblue/internal/dependencies/random"
	"github.com/mcoot/redblue/internal/metrics"
	"github.com/mcoot/redblue/internal/ratelimit"
	"github.com/mcoot/redblue/internal/services/auth"
	"github.com/mcoot/redblue/internal/services/game"
	"github.com/mcoot/redblue/internal/services/lobby"
	"github.com/mcoot/redblue/internal/services/presence"
	"github.com/mcoot/redblue/internal/services/scoring"
	"github.com/mcoot/redblue/internal/services/timers"
	"github.com/mcoot/redblue/internal/storage"
	"github.com/mcoot/redblue/internal/storage/memory"
	redisstorage "github.com/mcoot/redblue/internal/storage/redis"
	"github.com/mcoot/redblue/internal/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Archive archive.Archiver

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Observability
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Services
	ScoringService  *scoring.Service
	Timers          *timers.Registry
	GameController  *game.Controller
	LobbyController *lobby.Controller
	Presence        *presence.Monitor
	AuthService     *auth.Service
	HubManager      *ws.HubManager
	Limiter         ratelimit.Limiter

	allowedOrigin  string
	trustedProxies []netip.Prefix
}

// dependencies are the pieces New and NewTestApp choose differently
type dependencies struct {
	store   storage.Storage
	archive archive.Archiver
	limiter ratelimit.Limiter
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new application with all dependencies wired from cfg.
// A nil logger discards output.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var redisClient *redis.Client
	switch cfg.StorageType {
	case config.StorageMemory, "":
		store = memory.New()
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		redisClient = redisStore.Client()
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.StorageType)
	}

	arch, err := openArchive(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// The limiter shares the store's redis connection. Without redis every request is allowed.
	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if redisClient != nil && cfg.RateLimit > 0 {
		limiter = ratelimit.NewRedisLimiter(redisClient, ratelimit.Config{
			Limit:  cfg.RateLimit,
			Window: cfg.RateWindow,
		}, logger)
	}

	return newWithDependencies(dependencies{
		store:   store,
		archive: arch,
		limiter: limiter,
		clock:   clock.New(),
		random:  random.New(),
		logger:  logger,
	}, cfg)
}

func openArchive(ctx context.Context, cfg config.Config) (archive.Archiver, error) {
	switch cfg.ArchiveDriver {
	case config.ArchiveNone, "":
		return archive.Nop{}, nil
	case config.ArchiveSQLite:
		s, err := sqlite.Open(ctx, cfg.ArchiveDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite archive: %w", err)
		}
		return s, nil
	case config.ArchivePostgres:
		s, err := postgres.Open(ctx, cfg.ArchiveDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres archive: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("invalid archive driver %q", cfg.ArchiveDriver)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg config.Config) (*App, error) {
	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	authService, err := auth.New(deps.clock, auth.Config{
		Secret:        cfg.JWTSecret,
		TokenDuration: cfg.TokenTTL,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	hubManager := ws.NewHubManager(deps.logger, m)
	scoringService := scoring.New()
	timerRegistry := timers.New(deps.clock)
	gameController := game.NewController(
		deps.store,
		scoringService,
		timerRegistry,
		deps.clock,
		hubManager,
		deps.archive,
		m,
		deps.logger,
		game.Config{RoundTimeout: cfg.RoundTimeout},
	)
	lobbyController := lobby.NewController(
		deps.store,
		gameController,
		authService,
		deps.clock,
		deps.random,
		deps.logger,
		lobby.Config{LobbyTTL: cfg.LobbyTTL, FinishedRetention: cfg.FinishedRetention},
	)
	presenceMonitor := presence.NewMonitor(gameController, deps.logger, presence.Config{PauseTimeout: cfg.PauseTimeout})

	return &App{
		Storage:         deps.store,
		Archive:         deps.archive,
		Clock:           deps.clock,
		Random:          deps.random,
		Logger:          deps.logger,
		Metrics:         m,
		ScoringService:  scoringService,
		Timers:          timerRegistry,
		GameController:  gameController,
		LobbyController: lobbyController,
		Presence:        presenceMonitor,
		AuthService:     authService,
		HubManager:      hubManager,
		Limiter:         deps.limiter,
		allowedOrigin:   cfg.AllowedOrigin,
		trustedProxies:  trustedProxies,
	}, nil
}

// Handler builds the HTTP handler serving the API, ws/game/{id} and /metrics
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:          a.Logger,
		Metrics:         a.Metrics,
		AuthService:     a.AuthService,
		LobbyController: a.LobbyController,
		GameController:  a.GameController,
		Presence:        a.Presence,
		Archive:         a.Archive,
		Limiter:         a.Limiter,
		TrustedProxies:  a.trustedProxies,
		WebSocket: ws.NewHandler(
			a.HubManager,
			a.GameController,
			a.AuthService,
			a.Presence,
			a.Metrics,
			a.Logger,
			a.allowedOrigin,
		),
	})
}

// Restore prepares games that survived a restart. No socket survives, so live games pause until their players return.
func (a *App) Restore(ctx context.Context) error {
	games, err := a.Storage.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("list stored games: %w", err)
	}
	if err := a.Presence.RestoreSessions(ctx, games); err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	if err := a.GameController.RestoreTimers(ctx); err != nil {
		return fmt.Errorf("restore timers: %w", err)
	}
	return nil
}

// Close releases sockets, timers and backing stores
func (a *App) Close() error {
	a.HubManager.Close()
	return errors.Join(a.Archive.Close(), a.Storage.Close())
}
