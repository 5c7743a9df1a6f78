package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltStore returns a new instance of Store in a temporary path.
func newTestBoltStore(t *testing.T) *boltBookStorage {
	t.Helper()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   filepath.Join(t.TempDir(), "tmp.bolt.db"),
			Timeout:    5 * time.Second,
			BucketName: "test.books",
		},
	}

	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err, "failed in creating a test bolt store")

	bs := &boltBookStorage{
		logger: zap.NewNop(),
		client: client,
		config: &testConfig.BoltDB,
	}
	t.Cleanup(func() {
		_ = bs.Close()
		os.Remove(testConfig.BoltDB.FilePath)
	})
	return bs
}

// Ensure the catalog file can live in folders which do not exist yet.
func TestGetBoltDBClient_NestedPath(t *testing.T) {
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   filepath.Join(t.TempDir(), "data", "nested", "catalog.db"),
			Timeout:    time.Second,
			BucketName: "catalog.books",
		},
	}

	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err)
	defer client.Close()

	_, err = os.Stat(testConfig.BoltDB.FilePath)
	assert.NoError(t, err)

	bs := NewBoltBookStorage(zap.NewNop(), &testConfig.BoltDB, client)
	books, err := bs.GetAll(context.TODO())
	assert.NoError(t, err)
	assert.Empty(t, books)
}

// Ensure bolt store keeps appended books in id order.
func TestBoltStore_AppendAndGetAll(t *testing.T) {
	bs := newTestBoltStore(t)

	books, err := bs.GetAll(context.TODO())
	assert.NoError(t, err)
	assert.Empty(t, books)

	// keys must sort numerically beyond a single byte.
	for i := uint64(0); i < 300; i++ {
		b := NewBook(i, validBookInput(), "alice", 1000+i)
		require.NoError(t, bs.Append(context.TODO(), b))
	}

	books, err = bs.GetAll(context.TODO())
	require.NoError(t, err)
	require.Len(t, books, 300)
	for i, b := range books {
		assert.Equal(t, uint64(i), b.ID)
		assert.Equal(t, uint64(1000+i), b.CreatedAt)
	}
	assert.Equal(t, "alice", books[0].Owner)
	assert.Equal(t, "123-4564-54-4", books[0].ISBN)
}

// Ensure replaying the same record does not duplicate it.
func TestBoltStore_AppendIdempotent(t *testing.T) {
	bs := newTestBoltStore(t)
	b := NewBook(0, validBookInput(), "alice", 1)
	require.NoError(t, bs.Append(context.TODO(), b))
	require.NoError(t, bs.Append(context.TODO(), b))

	books, err := bs.GetAll(context.TODO())
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

// Ensure the catalog restored from bolt resumes the id sequence.
func TestBoltStore_Restore(t *testing.T) {
	store := newTestBoltStore(t)
	clock := NewLogicalClock(NewMockClocker())

	first := NewBookService(zap.NewNop(), &Config{}, clock, store, nil)
	for i := 0; i < 3; i++ {
		_, err := first.Add(context.TODO(), "alice", validBookInput())
		require.NoError(t, err)
	}

	second := NewBookService(zap.NewNop(), &Config{}, NewLogicalClock(NewMockClocker()), store, nil)
	require.NoError(t, second.Restore(context.TODO()))
	count, err := second.Count(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	last, err := second.GetOne(context.TODO(), 2)
	require.NoError(t, err)
	book, err := second.Add(context.TODO(), "bob", validBookInput())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), book.ID)
	assert.Greater(t, book.CreatedAt, last.CreatedAt)
}

// Ensure the replica consumer mirrors queued books into bolt until cancelled.
func TestBoltDBConsumer(t *testing.T) {
	store := newTestBoltStore(t)
	items := make(chan Book, 3)
	items <- NewBook(0, validBookInput(), "alice", 1)
	items <- NewBook(1, validBookInput(), "bob", 2)
	queue := &MockQueuer{
		PopFunc: func(ctx context.Context, qids ...string) (string, Book, error) {
			select {
			case b := <-items:
				return AppendQueue, b, nil
			case <-ctx.Done():
				return "", Book{}, ctx.Err()
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewBoltDBConsumer(zap.NewNop(), queue, store).Consume(ctx, AppendQueue)
	}()

	assert.Eventually(t, func() bool {
		books, err := store.GetAll(context.TODO())
		return err == nil && len(books) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}
