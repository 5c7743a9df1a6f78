package main

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidIndex   = errors.New("book id cannot be negative")
	ErrBookNotFound   = errors.New("book not found")
	ErrCorruptCatalog = errors.New("catalog records out of sequence")
)

// Catalog is the ordered, append-only sequence of books. The id of
// each book equals its position. It is not safe for concurrent use,
// callers must dispatch operations one at a time.
type Catalog struct {
	books []Book
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{books: []Book{}}
}

// Prepare validates the input and builds the book the next Append would
// store, without changing the catalog.
func (c *Catalog) Prepare(in BookInput, owner string, at uint64) (Book, error) {
	if err := ValidateBookInput(in); err != nil {
		return Book{}, err
	}
	return NewBook(uint64(len(c.books)), in, owner, at), nil
}

// Commit stores a prepared book at the end of the sequence.
func (c *Catalog) Commit(book Book) error {
	if book.ID != uint64(len(c.books)) {
		return fmt.Errorf("%w: got id %d at position %d", ErrCorruptCatalog, book.ID, len(c.books))
	}
	c.books = append(c.books, book.Clone())
	return nil
}

// Append validates the input then stores a new book owned by owner and
// created at the given logical time. Nothing changes on failure.
func (c *Catalog) Append(in BookInput, owner string, at uint64) (Book, error) {
	book, err := c.Prepare(in, owner, at)
	if err != nil {
		return Book{}, err
	}
	if err = c.Commit(book); err != nil {
		return Book{}, err
	}
	return book.Clone(), nil
}

// GetAll returns a copy of every book in append order.
func (c *Catalog) GetAll() []Book {
	books := make([]Book, 0, len(c.books))
	for _, b := range c.books {
		books = append(books, b.Clone())
	}
	return books
}

// GetOne returns a copy of the book with the given id. Valid ids
// satisfy 0 <= id < Count().
func (c *Catalog) GetOne(id int64) (Book, error) {
	if id < 0 {
		return Book{}, ErrInvalidIndex
	}
	if len(c.books) == 0 || id >= int64(len(c.books)) {
		return Book{}, ErrBookNotFound
	}
	return c.books[id].Clone(), nil
}

// Count returns the number of stored books.
func (c *Catalog) Count() int {
	return len(c.books)
}

// Ratings returns a copy of the ratings of the book with the given id.
func (c *Catalog) Ratings(id int64) ([]Rating, error) {
	book, err := c.GetOne(id)
	if err != nil {
		return nil, err
	}
	return book.Ratings, nil
}

// Restore loads previously persisted books into an empty catalog. A
// record repeating the id of the one right before it replaces that one:
// it is a retried write whose first attempt was reported as failed.
func (c *Catalog) Restore(books []Book) error {
	if len(c.books) != 0 {
		return fmt.Errorf("%w: restore into a non-empty catalog", ErrCorruptCatalog)
	}
	restored := make([]Book, 0, len(books))
	for i, b := range books {
		last := len(restored) - 1
		switch {
		case b.ID == uint64(len(restored)):
			restored = append(restored, b.Clone())
		case last >= 0 && b.ID == uint64(last):
			restored[last] = b.Clone()
		default:
			return fmt.Errorf("%w: got id %d at position %d", ErrCorruptCatalog, b.ID, i)
		}
	}
	c.books = restored
	return nil
}
