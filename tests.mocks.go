package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AppendFunc func(ctx context.Context, book Book) error
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Append mocks the behavior of persisting a new record by the repository.
func (m *MockBookStorage) Append(ctx context.Context, book Book) error {
	return m.AppendFunc(ctx, book)
}

// GetAll mocks the behavior of retrieving all records by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// NewMemoryBookStorage returns a storage mock which keeps books in memory
// at the position given by their id.
func NewMemoryBookStorage() (*MockBookStorage, *[]Book) {
	saved := &[]Book{}
	return &MockBookStorage{
		AppendFunc: func(_ context.Context, book Book) error {
			switch {
			case book.ID < uint64(len(*saved)):
				(*saved)[book.ID] = book
			case book.ID == uint64(len(*saved)):
				*saved = append(*saved, book)
			default:
				return ErrCorruptCatalog
			}
			return nil
		},
		GetAllFunc: func(_ context.Context) ([]Book, error) {
			return *saved, nil
		},
	}, saved
}

type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

// Push mocks the behavior of queueing a book.
func (m *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return m.PushFunc(ctx, qid, book)
}

// Pop mocks the behavior of dequeuing a book.
func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return m.PopFunc(ctx, qids...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockLogicalClock hands out consecutive stamps starting after Next.
type MockLogicalClock struct {
	Next     uint64
	Advanced []uint64
}

func (mlc *MockLogicalClock) Stamp() uint64 {
	mlc.Next++
	return mlc.Next
}

func (mlc *MockLogicalClock) Advance(ts uint64) {
	mlc.Advanced = append(mlc.Advanced, ts)
	if ts > mlc.Next {
		mlc.Next = ts
	}
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// validBookInput returns an input which passes every check.
func validBookInput() BookInput {
	return BookInput{
		ISBN:          "123-4564-54-4",
		Name:          "The Go Programming Language",
		Description:   "A book about Go",
		NumPage:       380,
		Author:        "Alan Donovan",
		DatePublished: "2015-10-26",
		Editions:      1,
	}
}
