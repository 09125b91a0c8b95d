package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"agladiator/internal/adapters"
	"agladiator/internal/bootstrap"
	matchDelivery "agladiator/internal/delivery/match"
	"agladiator/internal/delivery/ws"
	repo "agladiator/internal/repository"
	"agladiator/internal/usecase/agent"
	matchuc "agladiator/internal/usecase/match"
)

type mainDeliveryHandler struct {
	match *matchDelivery.MatchHandler
	hub   *ws.Hub
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, *cfg)
	defer databaseAdapters.close(context.Background())

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, databaseAdapters)
	handlers.Router(r)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		handlers.hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", zap.Error(err))
		}
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
	<-stopped
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.match.Router(r)
}

// initDatabaseAdapters connects only the stores that are configured. Without
// them matches still run, records and outcomes just die with the process.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg bootstrap.Config) *dataBaseAdapters {
	a := &dataBaseAdapters{}

	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(&cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatal("Failed to initialize MongoDB", zap.Error(err))
		}
		a.mongoAdapter = mongoAdapter
	}

	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(&cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		a.redisAdapter = redisAdapter
	}

	log.Infow("Database adapters initialized", "mongo", a.mongoAdapter != nil, "redis", a.redisAdapter != nil)
	return a
}

func (a *dataBaseAdapters) close(ctx context.Context) {
	if a.mongoAdapter != nil {
		_ = a.mongoAdapter.Close(ctx)
	}
	if a.redisAdapter != nil {
		_ = a.redisAdapter.Close(ctx)
	}
}

func initializeDeliveryHandlers(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	var records matchuc.RecordStore
	if databaseAdapters.redisAdapter != nil {
		records = repo.NewRecordRepository(cfg, log, databaseAdapters.redisAdapter.GetClient())
	}
	var outcomes matchuc.OutcomeStore
	if databaseAdapters.mongoAdapter != nil {
		outcomes = repo.NewMatchRepository(cfg, log, databaseAdapters.mongoAdapter.Database)
	}

	hub := ws.NewHub(log, cfg.NotifyTimeout)
	loader := agent.NewLoader(cfg, log)
	matchUC := matchuc.NewMatchUseCase(cfg, log, matchuc.NewRegistry(), loader, hub, records, outcomes)

	return &mainDeliveryHandler{
		match: matchDelivery.NewMatchHandler(log, matchUC, hub),
		hub:   hub,
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
