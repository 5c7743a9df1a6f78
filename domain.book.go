package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Grade is the appreciation a submitter gives to a book.
type Grade int

const (
	GradeUnrated Grade = iota
	GradeBad
	GradeRegular
	GradeAwesome
)

var gradeNames = map[Grade]string{
	GradeUnrated: "Unrated",
	GradeBad:     "Bad",
	GradeRegular: "Regular",
	GradeAwesome: "Awesome",
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	name, ok := gradeNames[g]
	if !ok {
		return nil, fmt.Errorf("unknown grade %d", int(g))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value is Unrated.
func (g *Grade) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*g = GradeUnrated
		return nil
	}
	for grade, name := range gradeNames {
		if name == string(text) {
			*g = grade
			return nil
		}
	}
	return fmt.Errorf("unknown grade %q", string(text))
}

// Rating pairs a submitter identity with its grade.
type Rating struct {
	Owner string `json:"owner"`
	Grade Grade  `json:"grade"`
}

// NewRating provides a rating. It is not reachable from any
// catalog operation yet, ratings are only read back.
func NewRating(owner string, grade Grade) Rating {
	return Rating{Owner: owner, Grade: grade}
}

// BookInput holds the fields a caller submits to append a book.
// Fields are declared in the order the checks must run.
type BookInput struct {
	ISBN          string `json:"isbn" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description" validate:"required,lt=255"`
	NumPage       uint64 `json:"numpage" validate:"required,lt=1200"`
	Author        string `json:"author" validate:"required"`
	DatePublished string `json:"datepublished" validate:"required"`
	Editions      uint64 `json:"editions" validate:"required"`
}

// Book represents a catalog record.
type Book struct {
	ID            uint64            `json:"id"`
	Owner         string            `json:"owner"`
	ISBN          string            `json:"isbn"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	NumPage       uint64            `json:"numpage"`
	Author        string            `json:"author"`
	DatePublished string            `json:"datepublished"`
	Editions      uint64            `json:"editions"`
	Ratings       []Rating          `json:"ratings"`
	Annotations   map[string]string `json:"annotations"`
	CreatedAt     uint64            `json:"createdAt"`
}

// NewBook builds the record stored at position id. The input must
// have been validated already, so this never fails.
func NewBook(id uint64, in BookInput, owner string, createdAt uint64) Book {
	return Book{
		ID:            id,
		Owner:         owner,
		ISBN:          in.ISBN,
		Name:          in.Name,
		Description:   in.Description,
		NumPage:       in.NumPage,
		Author:        in.Author,
		DatePublished: in.DatePublished,
		Editions:      in.Editions,
		Ratings:       []Rating{},
		Annotations:   map[string]string{},
		CreatedAt:     createdAt,
	}
}

// Clone returns a copy of the book which shares no storage with it.
func (b Book) Clone() Book {
	c := b
	c.Ratings = slices.Clone(b.Ratings)
	if c.Ratings == nil {
		c.Ratings = []Rating{}
	}
	c.Annotations = maps.Clone(b.Annotations)
	if c.Annotations == nil {
		c.Annotations = map[string]string{}
	}
	return c
}

// BookStorage persists the catalog records sequence. Append stores the
// book at position book.ID, so storing an id again replaces the record.
type BookStorage interface {
	Append(ctx context.Context, book Book) error
	GetAll(ctx context.Context) ([]Book, error)
}

// RatingReader exposes the ratings attached to catalog records.
type RatingReader interface {
	Ratings(ctx context.Context, id int64) ([]Rating, error)
}
