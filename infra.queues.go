package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs.
const (
	AppendQueue = "catalog.appended"
)

// Ensure *redisQueue implements Queuer.
var _ Queuer = (*redisQueue)(nil)

// Queuer describes a queue.
type Queuer interface {
	Push(ctx context.Context, qid string, book Book) error
	Pop(ctx context.Context, qids ...string) (string, Book, error)
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push enqueues a book onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, bookBytes).Err()
}

// popTimeout bounds each blocking pop so a done context is noticed.
const popTimeout = time.Second

// Pop returns the first dequeued book from the list of queue ids.
// It blocks until a book is available or the context is done.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	var book Book
	for {
		infos, err := q.client.BLPop(ctx, popTimeout, qids...).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return "", book, ctx.Err()
			}
			continue
		}
		if err != nil {
			return "", book, err
		}

		if err = json.Unmarshal([]byte(infos[1]), &book); err != nil {
			return "", book, err
		}
		return infos[0], book, nil
	}
}

// noopQueue is used when replication is disabled.
type noopQueue struct{}

func (noopQueue) Push(context.Context, string, Book) error { return nil }

func (noopQueue) Pop(ctx context.Context, _ ...string) (string, Book, error) {
	<-ctx.Done()
	return "", Book{}, ctx.Err()
}
