package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"folder-explorer/internal/broker"
	"folder-explorer/internal/cache"
	"folder-explorer/internal/config"
	"folder-explorer/internal/database"
	"folder-explorer/internal/handler"
	"folder-explorer/internal/metrics"
	"folder-explorer/internal/notifier"
	"folder-explorer/internal/redisclient"
	"folder-explorer/internal/repository"
	"folder-explorer/internal/router"
	"folder-explorer/internal/search"
	"folder-explorer/internal/service"
	"folder-explorer/internal/websocket"
)

type App struct {
	server       *http.Server
	cfg          *config.Config
	cleanupFuncs []func()
}

func New() (*App, error) {
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

	pubChannel, err := brokerConn.Channel(ctx)
	if err != nil {
		brokerConn.Close()
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	if err := broker.DeclareTopology(pubChannel); err != nil {
		brokerConn.Close()
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to declare broker topology: %w", err)
	}
	publisher := broker.NewPublisher(pubChannel, cfg.ServiceName)

	folderRepo := repository.NewFolderRepository(db.Pool)
	fileRepo := repository.NewFileRepository(db.Pool)
	statusRepo := repository.NewEventStatusRepository(db.Pool)

	m := metrics.New(prometheus.DefaultRegisterer)
	redisCache := cache.NewRedisCache(redisClient)
	searchIndex := search.NewRedisIndex(redisClient, cfg.SearchCacheTTL)
	statusChannel := notifier.NewRedisStatusChannel(redisClient)
	tracker := service.NewStatusTracker(statusRepo, statusChannel, m)

	treeService := service.NewTreeService(folderRepo, redisCache, cfg.TreeCacheTTL, cfg.ChildrenCacheTTL)
	folderService := service.NewFolderService(folderRepo, publisher, tracker)
	fileService := service.NewFileService(fileRepo, folderRepo, redisCache, publisher, cfg.FileListCacheTTL)
	searchService := service.NewSearchService(searchIndex, redisCache, cfg.SearchCacheTTL)

	hub := websocket.NewHub()
	notifierCtx, notifierCancel := context.WithCancel(context.Background())
	go hub.Run(notifierCtx)
	go func() {
		// The notifier is a pure fan-out: the shared channel subscription
		// feeds every connected client through the hub.
		for update := range statusChannel.Subscribe(notifierCtx) {
			hub.Broadcast(update)
		}
	}()

	appRouter := router.New(cfg, router.Handlers{
		Folder: handler.NewFolderHandler(folderService, treeService),
		File:   handler.NewFileHandler(fileService),
		Event:  handler.NewEventHandler(tracker),
		Search: handler.NewSearchHandler(searchService),
		Health: handler.NewHealthHandler(db, redisClient),
	}, hub)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cfg:    cfg,
		cleanupFuncs: []func(){
			notifierCancel,
			func() { _ = pubChannel.Close() },
			func() { _ = brokerConn.Close() },
			func() { _ = redisClient.Close() },
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
