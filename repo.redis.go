package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCatalogRedisKey is the list holding the catalog records.
const DefaultCatalogRedisKey string = "catalog:books"

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	key    string
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, key string) BookStorage {
	if key == "" {
		key = DefaultCatalogRedisKey
	}
	return &redisBookStorage{
		logger: logger,
		client: client,
		key:    key,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Append stores a book record at index book.ID of the catalog list. The
// record is pushed when the list ends right before it and overwritten
// when an earlier attempt already landed, so a retry after a write whose
// reply was lost never duplicates the id.
func (rs *redisBookStorage) Append(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.LLen(ctx, rs.key).Result()
		if err != nil {
			return err
		}
		length := uint64(n)
		if length != book.ID && length != book.ID+1 {
			return fmt.Errorf("%w: list holds %d records, cannot store id %d", ErrCorruptCatalog, length, book.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if length == book.ID {
				pipe.RPush(ctx, rs.key, bookBytes)
			} else {
				pipe.LSet(ctx, rs.key, int64(book.ID), bookBytes)
			}
			return nil
		})
		return err
	}, rs.key)
}

// GetAll retrieves all books stored in the catalog list in append order.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	items, err := rs.client.LRange(ctx, rs.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(items))
	for i, bookJSONString := range items {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, fmt.Errorf("failed to decode book at position %d: %w", i, err)
		}
		books = append(books, book)
	}
	return books, nil
}
