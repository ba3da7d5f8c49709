package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"exam-platform"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	QuestionAPI QuestionAPI
	Resolver    Resolver
	Offline     Offline
	Security    Security
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds the offline store connection configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// QuestionAPI configures the third-party question provider.
type QuestionAPI struct {
	BaseURL        string        `env:"QUESTION_API_BASE_URL" envDefault:"https://questions.aloc.com.ng/api/v2"`
	AccessToken    string        `env:"QUESTION_API_ACCESS_TOKEN"`
	HTTPTimeout    time.Duration `env:"QUESTION_API_TIMEOUT" envDefault:"15s"`
	RetryBaseDelay time.Duration `env:"QUESTION_API_RETRY_BASE_DELAY" envDefault:"500ms"`
}

// Resolver groups question-resolution defaults.
type Resolver struct {
	DefaultCount int           `env:"RESOLVER_DEFAULT_COUNT" envDefault:"40"`
	MaxCount     int           `env:"RESOLVER_MAX_COUNT" envDefault:"100"`
	MemCacheTTL  time.Duration `env:"RESOLVER_MEMCACHE_TTL" envDefault:"5m"`
	FetchTimeout time.Duration `env:"RESOLVER_FETCH_TIMEOUT" envDefault:"30s"`
}

// Offline governs bulk-download behavior for offline packs.
type Offline struct {
	SubjectDelay  time.Duration `env:"OFFLINE_SUBJECT_DELAY" envDefault:"750ms"`
	PrefetchCount int           `env:"OFFLINE_PREFETCH_COUNT" envDefault:"60"`
	Subjects      []string      `env:"OFFLINE_SUBJECTS" envSeparator:"," envDefault:"english,mathematics,physics,chemistry,biology,commerce,accounting,government,economics,literature"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
