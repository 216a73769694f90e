package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/postboard/apiserver/config"
	"github.com/postboard/apiserver/internal/auth"
	"github.com/postboard/apiserver/internal/db"
	"github.com/postboard/apiserver/internal/events"
	"github.com/postboard/apiserver/internal/handlers"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/metrics"
	"github.com/postboard/apiserver/internal/services"
	"github.com/postboard/apiserver/internal/storage"
	"github.com/postboard/apiserver/internal/store"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Users   services.UserRepository
	Objects services.ObjectStore
	Events  services.EventPublisher
	Auth    config.AuthConfig
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
	closers    []func(context.Context) error
}

// New opens the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	s := &Server{log: log}

	users, err := s.openUsers(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Users:   users,
		Auth:    cfg.Auth,
		Log:     log,
		Metrics: metrics.New(),
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = s.closeAll(ctx)
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if objects != nil {
		deps.Objects = objects
		s.closers = append(s.closers, func(context.Context) error { return objects.Close() })
	}

	ev, err := events.Open(ctx, cfg.Events)
	if err != nil {
		_ = s.closeAll(ctx)
		return nil, fmt.Errorf("open events: %w", err)
	}
	deps.Events = ev
	s.closers = append(s.closers, func(context.Context) error { return ev.Close() })

	router, err := NewRouter(deps)
	if err != nil {
		_ = s.closeAll(ctx)
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openUsers(ctx context.Context, cfg config.DatabaseConfig) (services.UserRepository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "postgres":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return conn.Close() })
		return store.NewUserRepository(conn), nil
	case "mongo":
		client, database, err := db.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		s.closers = append(s.closers, client.Disconnect)
		repo := store.NewMongoUserRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = s.closeAll(ctx)
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return repo, nil
	case "memory":
		s.log.Warn("using in-memory user store; data is lost on restart")
		return store.NewMemoryUserRepository(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewRouter builds the API router from deps.
func NewRouter(d Deps) (*chi.Mux, error) {
	log := d.Log
	if log == nil {
		log = logging.Discard()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.New()
	}

	issuer, err := auth.NewIssuer([]byte(d.Auth.JWTSecret), d.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	strategy := auth.NewStrategy([]byte(d.Auth.JWTSecret), d.Users)
	hasher := auth.NewBcryptHasher(d.Auth.BcryptCost)

	userService := services.NewUserService(d.Users)
	authService := services.NewAuthService(d.Users, hasher, issuer, d.Events, log)
	photoService := services.NewPhotoService(d.Users, d.Objects, log)

	requireAuth := handlers.RequireAuth(strategy, log, m)
	authHandler := handlers.NewAuthHandler(authService, log, m)
	usersHandler := handlers.NewUsersHandler(userService, photoService, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		m.Middleware,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
			NoColor: true,
		}),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", m.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/", handlers.APIRoot)
		r.Route("/auth", func(r chi.Router) {
			if d.Auth.RateLimit > 0 {
				r.Use(handlers.NewRateLimiter(d.Auth.RateLimit, max(d.Auth.RateBurst, 1)).Middleware)
			}
			handlers.AuthRouter(r, authHandler, requireAuth)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UsersRouter(r, usersHandler, requireAuth)
		})
	})

	return router, nil
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.closeAll(ctx))
}

func (s *Server) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
