package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/exam-platform/internal/auth"
	"github.com/prepdesk/exam-platform/internal/config"
	"github.com/prepdesk/exam-platform/internal/db/repository"
	"github.com/prepdesk/exam-platform/internal/logging"
	"github.com/prepdesk/exam-platform/internal/question"
	"github.com/prepdesk/exam-platform/internal/question/external"
	"github.com/prepdesk/exam-platform/internal/question/offline"
	"github.com/prepdesk/exam-platform/internal/server"
	ws "github.com/prepdesk/exam-platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	prefetchWorker *question.PrefetchWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}
	tokenMgr := auth.NewManager(auth.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	bank, err := question.LoadBank()
	if err != nil {
		return nil, fmt.Errorf("load fallback bank: %w", err)
	}

	questionRepo := repository.NewQuestionRepository(pool)
	offlineStore := offline.NewStore(redisClient)
	alocClient := external.NewALOCClient(
		cfg.QuestionAPI.BaseURL,
		cfg.QuestionAPI.AccessToken,
		&http.Client{Timeout: cfg.QuestionAPI.HTTPTimeout},
		cfg.QuestionAPI.RetryBaseDelay,
	)

	questionSvc := question.NewService(
		questionRepo,
		alocClient,
		alocClient,
		offlineStore,
		bank,
		logger,
		question.ServiceOptions{
			MemCacheTTL:  cfg.Resolver.MemCacheTTL,
			FetchTimeout: cfg.Resolver.FetchTimeout,
			Curator:      questionRepo,
		},
	)

	wsHub := ws.NewHub(logger)
	prefetchWorker := question.NewPrefetchWorker(
		questionSvc,
		question.NewHubNotifier(wsHub),
		cfg.Offline.SubjectDelay,
		logger,
	)

	questionHandler := question.NewHTTPHandler(
		questionSvc,
		prefetchWorker,
		offlineStore,
		questionRepo,
		wsHub,
		logger,
		question.HTTPHandlerOptions{
			DefaultCount:    cfg.Resolver.DefaultCount,
			MaxCount:        cfg.Resolver.MaxCount,
			DefaultSubjects: cfg.Offline.Subjects,
			PrefetchCount:   cfg.Offline.PrefetchCount,
		},
	)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, tokenMgr, questionHandler)

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		prefetchWorker: prefetchWorker,
		bgCancels:      make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.prefetchWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.prefetchWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("prefetch worker stopped")
			}
		}()
	}
}
