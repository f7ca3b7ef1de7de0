package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/cache"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/catalog"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/config"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/events"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/handlers"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/reservation"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/router"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/memory"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/mongodb"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/postgres"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/tracing"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/workflows"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/ws"
)

// multiNotifier fans a capacity change out to every registered listener.
type multiNotifier []reservation.CapacityNotifier

func (m multiNotifier) NotifyCapacity(item *models.InventoryItem) {
	for _, n := range m {
		n.NotifyCapacity(item)
	}
}

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Environment)
	defer logger.Sync()

	if shutdown := tracing.Init("travel-ease-api", logger); shutdown != nil {
		defer shutdown()
	}

	ctx := context.Background()

	inventory, ledger, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer closeStores()
	logger.Info("storage ready", zap.String("backend", cfg.StoreBackend))

	catalogService := catalog.NewService(inventory,
		cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger),
		cfg.CacheTTL, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.UseKafka {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	var scheduler reservation.HoldScheduler
	if cfg.UseTemporal {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNamespace,
		})
		if err != nil {
			logger.Fatal("failed to connect to Temporal", zap.Error(err))
		}
		defer temporalClient.Close()
		scheduler = workflows.NewScheduler(temporalClient, cfg.TemporalTaskQueue)
		logger.Info("hold expiry scheduling enabled", zap.String("temporal", cfg.TemporalHostPort))
	} else {
		logger.Warn("Temporal disabled, held bookings will not expire automatically")
	}

	reservationService := reservation.NewService(reservation.Config{
		Inventory:   inventory,
		Ledger:      ledger,
		Publisher:   publisher,
		Notifier:    multiNotifier{catalogService, hub},
		Scheduler:   scheduler,
		Logger:      logger,
		MaxAttempts: cfg.ReserveMaxAttempts,
		HoldTTL:     cfg.HoldTTL,
	})

	h := handlers.NewHandler(reservationService, catalogService)
	r := router.SetupRouter(h, hub, cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}

// buildStores picks the storage backend from configuration.
func buildStores(ctx context.Context, cfg *config.Config) (store.InventoryStore, store.BookingLedger, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewInventoryStore(pool), postgres.NewBookingLedger(pool), pool.Close, nil

	case "mongo":
		mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, nil, err
		}
		db := mongoClient.Database(cfg.MongoDB)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(disconnectCtx)
		}
		return mongodb.NewInventoryStore(db), mongodb.NewBookingLedger(db), closeFn, nil

	default:
		return memory.NewInventoryStore(), memory.NewBookingLedger(), func() {}, nil
	}
}
