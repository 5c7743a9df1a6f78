package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Consumer drains queued catalog events until its context ends.
type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// boltDBConsumer mirrors appended books into the boltdb replica.
type boltDBConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	replica BookStorage
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, replica BookStorage) Consumer {
	return &boltDBConsumer{logger: logger, queue: q, replica: replica}
}

// Consume returns nil once ctx is done. Pop failures are retried after a
// short pause and a failed replica write only drops that event.
func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("replica: stop consuming", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			bc.logger.Error("replica: failed to pop catalog event", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(popTimeout):
			}
			continue
		}

		if qid != AppendQueue {
			bc.logger.Warn("replica: ignored event from unexpected queue", zap.String("qid", qid), zap.Uint64("book.id", book.ID))
			continue
		}
		if err = bc.replica.Append(ctx, book); err != nil {
			bc.logger.Error("replica: failed to store book", zap.Uint64("book.id", book.ID), zap.Error(err))
		}
	}
}
