package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/activities"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/config"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/events"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/reservation"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/memory"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/mongodb"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/postgres"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/workflows"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	inventory, ledger, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer closeStores()
	logger.Info("storage ready", zap.String("backend", cfg.StoreBackend))

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.UseKafka {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	reservationService := reservation.NewService(reservation.Config{
		Inventory: inventory,
		Ledger:    ledger,
		Publisher: publisher,
		Logger:    logger,
	})

	logger.Info("connecting to Temporal", zap.String("hostPort", cfg.TemporalHostPort))
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.Fatal("failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.HoldExpiryWorkflow)

	acts := activities.NewActivities(reservationService)
	w.RegisterActivityWithOptions(acts.ExpireHold, activity.RegisterOptions{Name: "ExpireHold"})

	logger.Info("starting hold expiry worker", zap.String("taskQueue", cfg.TemporalTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
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
