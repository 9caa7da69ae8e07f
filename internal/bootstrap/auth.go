package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/crednova/crednova-api/config"
	"github.com/crednova/crednova-api/internal/adapters/devauth"
	"github.com/crednova/crednova-api/internal/adapters/gotrue"
	redisadapter "github.com/crednova/crednova-api/internal/adapters/redis"
	"github.com/crednova/crednova-api/internal/ports"
	"github.com/crednova/crednova-api/internal/service"
)

// AuthStackConfig contains configuration for the auth stack.
type AuthStackConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Profiles    ports.ProfileStore
	Logger      *slog.Logger
}

// AuthStack bundles the flow registry and the browser session store.
type AuthStack struct {
	Registry *service.FlowRegistry
	Sessions *redisadapter.SessionStore
}

// BuildAuthStack wires a provider factory for the configured auth mode into
// a flow registry, plus the Redis-backed browser session store.
func BuildAuthStack(cfg AuthStackConfig) (*AuthStack, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth stack requires a redis client")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	var (
		factory service.ProviderFactory
		err     error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeGoTrue:
		factory, err = buildGoTrueFactory(cfg.Auth.GoTrue, logger)
	case config.AuthModeMock:
		factory, err = buildDevAuthFactory(cfg.Auth.DevAuth)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, err
	}

	registry := service.NewFlowRegistry(service.FlowRegistryOptions{
		NewProvider:  factory,
		Profiles:     cfg.Profiles,
		Sessions:     sessions,
		SuperAdminID: cfg.Auth.SuperAdminID,
		Logger:       logger,
	})

	logger.Info("auth stack ready", "mode", cfg.Auth.Mode)

	return &AuthStack{Registry: registry, Sessions: sessions}, nil
}

func buildGoTrueFactory(cfg config.GoTrueConfig, logger *slog.Logger) (service.ProviderFactory, error) {
	provCfg := gotrue.Config{
		BaseURL:       cfg.URL,
		AnonKey:       cfg.AnonKey,
		JWTSecret:     cfg.JWTSecret,
		RefreshLeeway: cfg.RefreshLeeway,
		Logger:        logger,
	}

	// Construct one provider up front so misconfiguration fails at startup
	// rather than on the first login.
	first, err := gotrue.NewProvider(provCfg)
	if err != nil {
		return nil, fmt.Errorf("gotrue provider: %w", err)
	}
	first.Close()

	return func() ports.SessionProvider {
		p, err := gotrue.NewProvider(provCfg)
		if err != nil {
			// Construction is deterministic from config checked above.
			panic(fmt.Sprintf("gotrue provider: %v", err))
		}
		return p
	}, nil
}

func buildDevAuthFactory(cfg config.DevAuthConfig) (service.ProviderFactory, error) {
	users, err := ParseDevUsers(cfg.Users, cfg.AdminEmail)
	if err != nil {
		return nil, err
	}

	provCfg := devauth.Config{Users: users}
	if _, err := devauth.NewProvider(provCfg); err != nil {
		return nil, fmt.Errorf("dev auth provider: %w", err)
	}

	return func() ports.SessionProvider {
		p, err := devauth.NewProvider(provCfg)
		if err != nil {
			// Construction is deterministic from config checked above.
			panic(fmt.Sprintf("dev auth provider: %v", err))
		}
		return p
	}, nil
}

// ParseDevUsers turns "email:password" pairs into dev accounts. The account
// whose email matches adminEmail is marked super admin.
func ParseDevUsers(pairs []string, adminEmail string) ([]devauth.User, error) {
	users := make([]devauth.User, 0, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, password, ok := strings.Cut(pair, ":")
		email = strings.TrimSpace(email)
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("invalid dev auth user %q, want email:password", pair)
		}
		users = append(users, devauth.User{
			Email:      email,
			Password:   password,
			SuperAdmin: adminEmail != "" && strings.EqualFold(email, adminEmail),
		})
	}
	if len(users) == 0 {
		return nil, errors.New("dev auth mode requires at least one DEV_AUTH_USERS entry")
	}
	return users, nil
}
