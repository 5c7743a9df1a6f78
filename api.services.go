package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrStorage       = errors.New("catalog storage failure")
	ErrMissingCaller = errors.New("caller identity is required")
)

type BookServiceProvider interface {
	RatingReader
	Add(ctx context.Context, owner string, in BookInput) (Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Count(ctx context.Context) (int, error)
	Restore(ctx context.Context) error
}

// BookService dispatches catalog operations one at a time. It stamps each
// append with the caller identity and a logical timestamp, persists the new
// record then publishes it for replication.
type BookService struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	config  *Config
	clock   LogicalClocker
	catalog *Catalog
	storage BookStorage
	queue   Queuer
}

func NewBookService(logger *zap.Logger, config *Config, clock LogicalClocker, storage BookStorage, queue Queuer) BookServiceProvider {
	if queue == nil {
		queue = noopQueue{}
	}
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		catalog: NewCatalog(),
		storage: storage,
		queue:   queue,
	}
}

// Add appends a new book owned by the caller. On any failure the catalog is left unchanged.
func (bs *BookService) Add(ctx context.Context, owner string, in BookInput) (Book, error) {
	if owner == "" {
		return Book{}, ErrMissingCaller
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	book, err := bs.catalog.Prepare(in, owner, bs.clock.Stamp())
	if err != nil {
		return Book{}, err
	}

	if err = bs.storage.Append(ctx, book); err != nil {
		return Book{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err = bs.catalog.Commit(book); err != nil {
		return Book{}, err
	}

	if err := bs.queue.Push(ctx, AppendQueue, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", AppendQueue), zap.Uint64("book.id", book.ID), zap.Error(err))
	}
	return book, nil
}

func (bs *BookService) GetOne(_ context.Context, id int64) (Book, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.catalog.GetOne(id)
}

func (bs *BookService) GetAll(_ context.Context) ([]Book, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.catalog.GetAll(), nil
}

func (bs *BookService) Count(_ context.Context) (int, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.catalog.Count(), nil
}

func (bs *BookService) Ratings(_ context.Context, id int64) ([]Rating, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.catalog.Ratings(id)
}

// Restore loads the persisted records into the catalog. It must run
// once, before the service starts serving requests.
func (bs *BookService) Restore(ctx context.Context) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err = bs.catalog.Restore(books); err != nil {
		return err
	}
	for _, b := range books {
		bs.clock.Advance(b.CreatedAt)
	}
	bs.logger.Info("service: catalog restored", zap.Int("catalog.count", len(books)))
	return nil
}
