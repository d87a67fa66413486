package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/storage"
	"tracker/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(applog.FieldComponent, applog.ComponentBackend),
	}
}

// CreateBackend opens the store, hydrates a ledger from it and connects the
// optional event publisher. AMQP failures are logged and the backend runs
// without publishing.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ids, err := ledger.NewIDGenerator(config.IDStrategy)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	l := ledger.New(storage.NewTransactionLog(store),
		ledger.WithIDGenerator(ids),
		ledger.WithLogger(f.logger))
	if err := l.Hydrate(ctx); err != nil {
		closeStore()
		return nil, fmt.Errorf("hydrate ledger: %w", err)
	}

	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = client
		}
	}

	service := services.NewTransactionService(l, publisher)

	f.logger.InfoContext(ctx, "Initialized backend",
		applog.FieldBackend, config.Type.String(),
		"transactions", l.Len(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Store:   store,
		Ledger:  l,
		Service: service,
		Cleanup: func() error {
			return errors.Join(service.Close(), closeStore())
		},
	}, nil
}

func (f *DefaultFactory) openStore(config Config) (storage.KeyValueStore, func() error, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return store, store.Close, nil
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		f.logger.Info("Opened memory store", "data_directory", dataDir)
		return memory.NewFromDir(dataDir), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
