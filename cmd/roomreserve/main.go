package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/config"
	"github.com/example/roomreserve/internal/history"
	"github.com/example/roomreserve/internal/logging"
	"github.com/example/roomreserve/internal/notify"
	"github.com/example/roomreserve/internal/persistence"
	"github.com/example/roomreserve/internal/persistence/memory"
	"github.com/example/roomreserve/internal/persistence/sqlite"
)

const (
	defaultAdminLogin    = "admin"
	defaultAdminPassword = "admin"
)

func main() {
	logger := logging.New(os.Stderr, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	notifier, notifierClose, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to connect notifier", "error", err)
		os.Exit(1)
	}
	defer notifierClose()

	if err := seedDefaultAdmin(ctx, store, logger); err != nil {
		logger.Error("failed to seed default admin", "error", err)
		os.Exit(1)
	}

	engine := application.NewReservationServiceWithLogger(store, store, store, cfg.Policy(), notifier, time.Now, logger)
	engine.SetActiveQuota(cfg.ActiveQuota)

	rooms := application.NewRoomServiceWithLogger(store, time.Now, logger)
	rooms.NotifyCatalogChange(engine.InvalidateAvailability)

	app := &cli{
		in:      os.Stdin,
		out:     os.Stdout,
		logger:  logger,
		engine:  engine,
		users:   application.NewUserServiceWithLogger(store, nil, time.Now, logger),
		rooms:   rooms,
		auth:    application.NewAuthServiceWithLogger(store, nil, logger),
		history: history.NewService(cfg.HistoryCapacity),
		cfg:     cfg,
	}

	if err := app.run(ctx); err != nil {
		logger.Error("session ended with error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, func(), error) {
	if cfg.Storage == config.StorageSQLite {
		store, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		if err := sqlite.Migrate(ctx, store); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("using sqlite storage", "dsn", cfg.SQLiteDSN)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close storage", "error", err)
			}
		}, nil
	}

	logger.Info("using in-memory storage")
	return memory.New(), func() {}, nil
}

func buildNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, func(), error) {
	if cfg.AMQPURL == "" {
		return notify.NewLogNotifier(logger), func() {}, nil
	}

	notifier, err := notify.DialAMQP(cfg.AMQPURL, cfg.NotifyQueue)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("publishing confirmations", "queue", cfg.NotifyQueue)
	return notifier, func() {
		if err := notifier.Close(); err != nil {
			logger.Error("failed to close notifier", "error", err)
		}
	}, nil
}

// seedDefaultAdmin creates the bootstrap administrator account when the
// store holds no users at all.
func seedDefaultAdmin(ctx context.Context, store persistence.Store, logger *slog.Logger) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := application.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	if _, err := store.CreateUser(ctx, persistence.User{
		Login:        defaultAdminLogin,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         persistence.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}

	logger.Info("seeded default administrator", "login", defaultAdminLogin)
	return nil
}
