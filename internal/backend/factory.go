package backend

import (
	"context"
	"errors"
	"fmt"

	"financeiro/internal/amqp"
	"financeiro/internal/ledger/file"
	"financeiro/internal/log"
	"financeiro/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case FileBackend:
		result = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result.AMQP = f.connectAMQP(ctx, config)
	closeStore := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		if closeStore != nil {
			if err := closeStore(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		if result.AMQP != nil {
			if err := result.AMQP.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createFileBackend(config Config) *BackendResult {
	f.logger.Info("Initialized file backend", "data_file", config.DataFile)
	return &BackendResult{Store: file.New(config.DataFile)}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		SQLite:  repo,
		Cleanup: repo.Close,
	}, nil
}

// connectAMQP returns nil when AMQP is disabled or unreachable; the API
// keeps working without ledger events.
func (f *DefaultFactory) connectAMQP(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without ledger events",
			log.FieldError, err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
