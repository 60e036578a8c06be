package app

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/cart/internal/health"
	"github.com/vladislavdragonenkov/cart/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cart/internal/metrics"
	cartservice "github.com/vladislavdragonenkov/cart/internal/service/cart"
	"github.com/vladislavdragonenkov/cart/internal/service/catalog"
	"github.com/vladislavdragonenkov/cart/internal/service/idempotency"
	"github.com/vladislavdragonenkov/cart/internal/service/outbox"
	"github.com/vladislavdragonenkov/cart/internal/transport/rest"
	"github.com/vladislavdragonenkov/cart/internal/version"
)

// ID товара каталога для readiness probe. Любой ID годится, probe
// считает ErrProductNotFound здоровым состоянием.
const catalogProbeProductID = "1"

// Run собирает зависимости и запускает HTTP-сервер корзины вместе
// с metrics-сервером и фоновыми воркерами. Блокируется до отмены ctx
// или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if deps.closeFn != nil {
		defer func() {
			if closeErr := deps.closeFn(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to close storage")
			}
		}()
	}

	productCatalog := catalog.NewSeededCatalog()
	cartMetrics := metrics.NewCartMetrics()

	svc := cartservice.NewService(
		deps.repo,
		productCatalog,
		logger.WithField("layer", "service"),
		cartservice.WithOutbox(deps.outboxRepo),
		cartservice.WithMetrics(cartMetrics),
	)

	// Kafka producer опционален: без брокера события копятся в outbox.
	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		kafkaProducer = nil
	}

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var outboxDone chan struct{}
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicCartEvents)
		dlqPublisher := kafka.NewDLQPublisher(kafkaProducer, kafka.TopicCartEvents)
		worker := outbox.NewWorker(
			deps.outboxRepo,
			publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		outboxDone = make(chan struct{})
		go func() {
			defer close(outboxDone)
			worker.Run(workersCtx)
		}()
	}

	cleanupWorker := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		cleanupWorker.Run(workersCtx)
	}()

	sessionManager := rest.NewSessionManager(sessionSecret(cfg, logger), cfg.SessionMaxAge)
	srv := rest.NewServer(
		cfg.HTTPAddr,
		svc,
		sessionManager,
		rest.WithIdempotency(deps.idempotencyRepo, cfg.IdempotencyTTL),
		rest.WithServerLogger(logger.WithField("layer", "http")),
	)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}
	healthHandler.RegisterChecker("catalog", healthcheck.NewCatalogChecker(productCatalog, catalogProbeProductID))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер корзины слушает %s", cfg.HTTPAddr)
		errCh <- srv.Start()
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http server shutdown with error")
		}
		shutdownWorker(stopWorkers, outboxDone, logger)
		shutdownWorker(nil, cleanupDone, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		return err
	}
}

// sessionSecret возвращает ключ подписи сессионных cookie. Без
// настроенного секрета генерируется одноразовый ключ, при рестарте
// существующие сессии будут сброшены.
func sessionSecret(cfg Config, logger *log.Entry) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.WithError(err).Warn("failed to generate session secret, falling back to static key")
		return []byte("cart-dev-session-secret")
	}
	logger.Warn("session secret is not configured, using ephemeral key")
	return secret
}

// shutdownWorker останавливает фонового воркера и ждёт его завершения.
func shutdownWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("background worker did not stop within timeout")
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus
// вместе с health-эндпоинтами.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
