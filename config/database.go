package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"crednova"`
	Password string `env:"PASSWORD"                envDefault:"crednova"`
	Name     string `env:"NAME"                    envDefault:"crednova"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the browser session store.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// SessionConfig controls browser session lifetime and flow housekeeping.
type SessionConfig struct {
	// TTL is how long a browser session cookie stays valid.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// ReapInterval is how often expired auth flows are swept.
	ReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"5m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = 24 * time.Hour
	}
	if s.ReapInterval <= 0 {
		s.ReapInterval = 5 * time.Minute
	}
}
