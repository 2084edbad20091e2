// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/quando-pode/internal/app/httpapi"
	"github.com/marcelojr/quando-pode/internal/app/voting"
	"github.com/marcelojr/quando-pode/internal/platform/clock"
	"github.com/marcelojr/quando-pode/internal/platform/config"
	"github.com/marcelojr/quando-pode/internal/platform/health"
	"github.com/marcelojr/quando-pode/internal/platform/ids"
	"github.com/marcelojr/quando-pode/internal/platform/logger"
	"github.com/marcelojr/quando-pode/internal/platform/migrations"
	"github.com/marcelojr/quando-pode/internal/platform/passphrase"
	postgresstorage "github.com/marcelojr/quando-pode/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/quando-pode/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	pool := postgresstorage.DefaultPoolConfig()
	pool.MaxOpenConns = cfg.PostgresMaxOpenConns
	pool.MaxIdleConns = cfg.PostgresMaxIdleConns

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(), pool)
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	clockSystem := clock.NewSystemClock()
	idGen := ids.NewGenerator()

	opts := []voting.ServiceOption{
		voting.WithLogger(logger.L()),
		voting.WithActivityRepository(postgresstorage.NewActivityRepository(db)),
	}

	// Todo o estado da enquete vive no Postgres; sem Redis a API segue sem cache, fila e contadores.
	var redisClient *redis.Client
	redisClient, err = redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis indisponivel, seguindo sem cache e fila de atividade", "err", err)
	} else {
		defer redisClient.Close()
		opts = append(opts, voting.WithCounter(redisstorage.NewCounter(redisClient, cfg.CounterKeyPrefix)))
		if cfg.PollCacheEnabled {
			opts = append(opts, voting.WithPollCache(redisstorage.NewPollCache(redisClient, cfg.PollCachePrefix, cfg.PollCacheTTL)))
		}
		if cfg.PublishActivities {
			opts = append(opts, voting.WithActivityQueue(redisstorage.NewActivityQueue(redisClient, cfg.ActivityQueueKey)))
		}
	}

	servico := voting.NewService(
		postgresstorage.NewPollRepository(db),
		postgresstorage.NewParticipantRepository(db),
		postgresstorage.NewVoteUnitOfWork(db, clockSystem),
		passphrase.NewBcryptHasher(cfg.BcryptCost),
		clockSystem,
		idGen,
		opts...,
	)

	mux := http.NewServeMux()
	checker := health.NewChecker(health.DatabaseDependency(sqlDB), health.RedisDependency(redisClient))

	api := httpapi.New(servico, logger.L())
	api.Register(mux)
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
