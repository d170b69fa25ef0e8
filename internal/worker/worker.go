package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folder-explorer/internal/broker"
	"folder-explorer/internal/cache"
	"folder-explorer/internal/config"
	"folder-explorer/internal/consumer"
	"folder-explorer/internal/database"
	"folder-explorer/internal/event"
	"folder-explorer/internal/metrics"
	"folder-explorer/internal/notifier"
	"folder-explorer/internal/processor"
	"folder-explorer/internal/redisclient"
	"folder-explorer/internal/repository"
	"folder-explorer/internal/search"
	"folder-explorer/internal/service"
)

// Worker hosts the per-queue dispatch loops and the domain processors that
// keep cache and search index consistent with the relational store.
type Worker struct {
	cfg         *config.Config
	dispatchers []*consumer.Dispatcher
	tracker     *service.StatusTracker
	metricsSrv  *http.Server

	cleanupFuncs []func()
}

func New() (*Worker, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	redisClient, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("connecting to broker")
	brokerConn, err := broker.Connect(ctx, cfg.BrokerURL)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	setupChannel, err := brokerConn.Channel(ctx)
	if err != nil {
		brokerConn.Close()
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to open setup channel: %w", err)
	}
	if err := broker.DeclareTopology(setupChannel); err != nil {
		brokerConn.Close()
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to declare broker topology: %w", err)
	}
	_ = setupChannel.Close()

	folderRepo := repository.NewFolderRepository(db.Pool)
	fileRepo := repository.NewFileRepository(db.Pool)
	statusRepo := repository.NewEventStatusRepository(db.Pool)

	m := metrics.New(prometheus.DefaultRegisterer)
	redisCache := cache.NewRedisCache(redisClient)
	searchIndex := search.NewRedisIndex(redisClient, cfg.SearchCacheTTL)
	statusChannel := notifier.NewRedisStatusChannel(redisClient)
	tracker := service.NewStatusTracker(statusRepo, statusChannel, m)
	treeService := service.NewTreeService(folderRepo, redisCache, cfg.TreeCacheTTL, cfg.ChildrenCacheTTL)

	folderProcessor := processor.NewFolderProcessor(redisCache, treeService, tracker)
	fileProcessor := processor.NewFileProcessor(redisCache, searchIndex)
	cacheProcessor := processor.NewCacheProcessor(redisCache, treeService)
	searchProcessor := processor.NewSearchProcessor(searchIndex, folderRepo, fileRepo)

	dispatchers := []*consumer.Dispatcher{
		newDispatcher(brokerConn, cfg, m, event.QueueFolder, folderProcessor.Handle),
		newDispatcher(brokerConn, cfg, m, event.QueueFile, fileProcessor.Handle),
		newDispatcher(brokerConn, cfg, m, event.QueueCache, cacheProcessor.Handle),
		newDispatcher(brokerConn, cfg, m, event.QueueSearch, searchProcessor.Handle),
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Worker{
		cfg:         cfg,
		dispatchers: dispatchers,
		tracker:     tracker,
		metricsSrv:  metricsSrv,
		cleanupFuncs: []func(){
			func() { _ = brokerConn.Close() },
			func() { _ = redisClient.Close() },
			db.Close,
		},
	}, nil
}

func newDispatcher(b *broker.Broker, cfg *config.Config, m *metrics.Metrics, queue string, handler consumer.Handler) *consumer.Dispatcher {
	return consumer.NewDispatcher(b, consumer.Config{
		Queue:      queue,
		Handler:    handler,
		Prefetch:   cfg.PrefetchCount,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, m)
}

func (w *Worker) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var loops sync.WaitGroup
	for _, d := range w.dispatchers {
		loops.Add(1)
		go func(d *consumer.Dispatcher) {
			defer loops.Done()
			if err := d.Run(ctx); err != nil {
				slog.Error("dispatcher exited with error", "error", err)
			}
		}(d)
	}

	go w.retentionLoop(ctx)

	go func() {
		slog.Info("metrics listening", "addr", w.metricsSrv.Addr)
		if err := w.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down", "timeout", w.cfg.ShutdownTimeout)
	cancel()

	// Wait for in-flight handlers, bounded by the shutdown timeout. Handlers
	// still running past the bound are abandoned; the broker redelivers
	// their unacknowledged messages to the next consumer.
	done := make(chan struct{})
	go func() {
		for _, d := range w.dispatchers {
			d.Wait()
		}
		loops.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("all handlers drained")
	case <-time.After(w.cfg.ShutdownTimeout):
		slog.Warn("shutdown timeout exceeded, abandoning in-flight handlers")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = w.metricsSrv.Shutdown(shutdownCtx)

	for _, cleanup := range w.cleanupFuncs {
		cleanup()
	}

	slog.Info("worker stopped")
	return nil
}

// retentionLoop prunes terminal event status records past the retention
// window.
func (w *Worker) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.RetentionSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.tracker.DeleteOldEvents(ctx, w.cfg.EventRetentionDays); err != nil {
				slog.Error("event status retention sweep failed", "error", err)
			}
		}
	}
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
