package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient opens the catalog file, creating its folder and the
// books bucket when missing.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.BoltDB.FilePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create catalog folder: %v", err)
	}
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName))
		return errB
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare bucket %q: %v", config.BoltDB.BucketName, err)
	}
	return db, nil
}

// NewBoltBookStorage keeps catalog records in a bolt bucket keyed by id.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close releases the catalog file lock.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// bookKey encodes the id in big endian so the bucket
// cursor walks the records in append order.
func bookKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// Append saves a book record under its id. Saving the same id again
// replaces the record so replaying a replication event is harmless.
func (bs *boltBookStorage) Append(_ context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Put(bookKey(book.ID), bookBytes)
	})
}

// GetAll walks the bucket in key order, which is the id order.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	books := []Book{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).ForEach(func(k, v []byte) error {
			var book Book
			if err := json.Unmarshal(v, &book); err != nil {
				return fmt.Errorf("failed to decode book at key %x: %w", k, err)
			}
			books = append(books, book)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}
