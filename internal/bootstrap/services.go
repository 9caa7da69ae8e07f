package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/crednova/crednova-api/config"
	"github.com/crednova/crednova-api/internal/adapters/pgstore"
	"github.com/crednova/crednova-api/internal/data"
	"github.com/crednova/crednova-api/internal/ports"
	"github.com/crednova/crednova-api/internal/service"
)

// ServiceContainer holds the application services and repositories.
type ServiceContainer struct {
	Registry  *service.FlowRegistry
	Sessions  ports.SessionStore
	Profiles  *data.ProfileRepo
	Roles     *data.RoleRepo
	Debts     *data.DebtRepo
	Contacts  *data.ContactMessageRepo
	Documents *data.UserDocumentRepo
	Messages  *data.UserMessageRepo
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices builds the repositories and the auth stack.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}

	profiles := data.NewProfileRepo(deps.DB)
	roles := data.NewRoleRepo(deps.DB)

	stack, err := BuildAuthStack(AuthStackConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		Profiles:    pgstore.NewProfileStore(profiles, roles),
		Logger:      deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth stack: %w", err)
	}

	return ServiceContainer{
		Registry:  stack.Registry,
		Sessions:  stack.Sessions,
		Profiles:  profiles,
		Roles:     roles,
		Debts:     data.NewDebtRepo(deps.DB),
		Contacts:  data.NewContactMessageRepo(deps.DB),
		Documents: data.NewUserDocumentRepo(deps.DB),
		Messages:  data.NewUserMessageRepo(deps.DB),
	}, nil
}

// RunConfig contains dependencies for the service runtime.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown serves HTTP and the flow reaper until SIGINT or SIGTERM,
// then shuts both down gracefully.
func RunWithShutdown(cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := BuildHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		BaseCtx:  ctx,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cfg.Services.Registry.RunReaper(gctx, cfg.Config.Session.ReapInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", serveErr)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  server,
			Logger:  logger,
		})
	})

	err = g.Wait()
	cfg.Services.Registry.CloseAll()
	return err
}
