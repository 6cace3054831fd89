package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store backends selectable through SESSION_BACKEND and QUERY_CACHE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port       string `env:"PORT,        default=8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	LogPretty  bool   `env:"LOG_PRETTY,  default=false"`
	BackendURL string `env:"BACKEND_URL, default=http://localhost:8000"`

	Session SessionConfig
	Query   QueryConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	Backend       string        `env:"SESSION_BACKEND,        default=redis"`
	Cookie        string        `env:"SESSION_COOKIE,         default=portal_session"`
	CookieDomain  string        `env:"COOKIE_DOMAIN"`
	CookieSecure  bool          `env:"COOKIE_SECURE,          default=false"`
	IdleTTL       time.Duration `env:"SESSION_IDLE_TTL,       default=30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=1m"`
	ResolveWait   time.Duration `env:"SESSION_RESOLVE_WAIT,   default=1500ms"`
	Workers       int           `env:"RESOLVE_WORKERS,        default=8"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,              default=24h"`
}

type QueryConfig struct {
	Backend   string        `env:"QUERY_CACHE_BACKEND, default=memory"`
	StaleTime time.Duration `env:"QUERY_STALE_TIME,    default=30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=nutrition_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// NeedsRedis reports whether any configured store lives in Redis.
func (c *Config) NeedsRedis() bool {
	return c.Session.Backend == BackendRedis || c.Query.Backend == BackendRedis
}

// NeedsMongo reports whether the session store lives in MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.Session.Backend == BackendMongo
}

// IsProduction reports whether the portal runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.Session.Backend)
	}
	switch c.Query.Backend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unsupported QUERY_CACHE_BACKEND %q", c.Query.Backend)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	return nil
}

// Process fills a Config from lookuper and validates it.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}
