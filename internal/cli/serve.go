package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"home-panel/docs"
	"home-panel/internal/auth/handlers"
	authrepo "home-panel/internal/auth/repository"
	authsvc "home-panel/internal/auth/service"
	"home-panel/internal/common/apidocs"
	"home-panel/internal/common/config"
	"home-panel/internal/common/database"
	"home-panel/internal/common/health"
	"home-panel/internal/common/logging"
	"home-panel/internal/common/middleware"
	dashhandlers "home-panel/internal/dashboard/handlers"
	dashrepo "home-panel/internal/dashboard/repository"
	dashsvc "home-panel/internal/dashboard/service"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configFromContext(ctx), logging.FromContext(ctx))
		},
	}
}

// server собирает из конфигурации всё, что нужно HTTP-слою.
type server struct {
	app        *fiber.App
	workspaces *dashsvc.Workspaces
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	users := authrepo.New(db)
	if err := users.Init(ctx); err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	sessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := sessions.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	srv := newServer(cfg, logger, users, dashrepo.NewDeviceRepository(db), sessions)
	addr := fmt.Sprintf(":%s", cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting home panel", "addr", addr, "env", cfg.Environment, "db", cfg.DBPath)
		return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		err := srv.app.ShutdownWithTimeout(shutdownTimeout)
		srv.workspaces.CloseAll()
		return err
	})
	g.Go(func() error {
		runJanitor(gctx, sessions, logger)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newServer(cfg *config.Config, logger *log.Logger, users *authrepo.Repository, devices *dashrepo.DeviceRepository, sessions authsvc.SessionStore) *server {
	layouts := dashrepo.NewLayoutRepository(users)
	workspaces := dashsvc.NewWorkspaces(devices, layouts, cfg.Grid, logger,
		dashsvc.WithSignalTTL(cfg.SaveSignalTTL),
		dashsvc.WithCoalescing(cfg.CoalesceSaves),
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Home Panel",
		ErrorHandler: middleware.ErrorHandler,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Routes
	// ============================================================

	health.New(users).Register(app)
	apidocs.New(docs.OpenAPI).Register(app)

	authHandler := handlers.NewAuthHandler(users, sessions, layouts, workspaces,
		handlers.WithLogger(logger.WithPrefix("AUTH")),
		handlers.WithSessionTTL(cfg.SessionTTL),
		handlers.WithSecureCookie(cfg.Environment == "production"),
	)
	authHandler.Register(app.Group("/api/auth"))

	requireSession := middleware.RequireSession(sessions)
	dashhandlers.NewDashboardHandler(workspaces, layouts, logger).Register(app.Group("/api/dashboard", requireSession))
	dashhandlers.NewDevicesHandler(devices, workspaces, logger).Register(app.Group("/api/devices", requireSession))

	return &server{app: app, workspaces: workspaces}
}

func openSessions(ctx context.Context, cfg *config.Config, logger *log.Logger) (authsvc.SessionStore, error) {
	if cfg.RedisAddr == "" {
		logger.Debug("using in-memory sessions", "ttl", cfg.SessionTTL)
		return authsvc.NewSessionManager(cfg.SessionTTL), nil
	}
	store, err := authsvc.NewRedisStore(ctx, cfg.RedisAddr, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	logger.Info("using redis sessions", "addr", cfg.RedisAddr)
	return store, nil
}

// runJanitor периодически чистит истёкшие сессии до отмены ctx.
func runJanitor(ctx context.Context, sessions authsvc.SessionStore, logger *log.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.Cleanup(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", "err", err)
				continue
			}
			if removed > 0 {
				logger.Debug("expired sessions removed", "count", removed)
			}
		}
	}
}
