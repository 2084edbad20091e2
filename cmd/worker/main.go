// Worker assíncrono que consome eventos de atividade, persiste no Postgres e mantém os contadores no Redis.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/quando-pode/internal/app/worker"
	"github.com/marcelojr/quando-pode/internal/platform/clock"
	"github.com/marcelojr/quando-pode/internal/platform/config"
	"github.com/marcelojr/quando-pode/internal/platform/health"
	"github.com/marcelojr/quando-pode/internal/platform/logger"
	"github.com/marcelojr/quando-pode/internal/platform/migrations"
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

	// Aqui o Redis é obrigatório: a fila e os contadores vivem nele.
	redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	counter := redisstorage.NewCounter(redisClient, cfg.CounterKeyPrefix)
	fila := redisstorage.NewActivityQueue(redisClient, cfg.ActivityQueueKey)
	checker := health.NewChecker(health.DatabaseDependency(sqlDB), health.RedisDependency(redisClient))

	var metricsSrv *http.Server
	if cfg.WorkerMetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		mux.HandleFunc("GET /readyz", checker.ReadyHandler())
		mux.HandleFunc("GET /healthz", health.LiveHandler())
		metricsSrv = &http.Server{Addr: cfg.WorkerMetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	if cfg.WorkerQueueDepthInterval > 0 {
		go worker.ReportQueueDepth(ctx, fila, cfg.WorkerQueueDepthInterval)
	}

	processor := worker.NewActivityProcessor(postgresstorage.NewActivityRepository(db), counter, clock.NewSystemClock())

	logger.Info("worker iniciado, aguardando atividades", "fila", cfg.ActivityQueueKey)
	err = processor.Run(ctx, fila)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker finalizado com erro", "err", err)
	}

	logger.Info("worker finalizado")
}
