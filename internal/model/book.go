package model

import (
	"time"
)

// Book is a catalogue record. ISBN, when present, is unique across books.
type Book struct {
	ID            int64          `json:"id" yaml:"id"`
	Title         string         `json:"title" yaml:"title"`
	AuthorID      *int64         `json:"-" yaml:"-"`
	Author        *Author        `json:"author" yaml:"author,omitempty"`
	ISBN          string         `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	PublishedDate *PublishedDate `json:"published_date,omitempty" yaml:"published_date,omitempty"`
	Cover         string         `json:"cover,omitempty" yaml:"cover,omitempty"`
	AverageRating *float64       `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
}

// OwnerKind implements Owner.
func (b *Book) OwnerKind() string { return "book" }

// OwnerID implements Owner.
func (b *Book) OwnerID() int64 { return b.ID }

// SetAuthor links the book to a (possibly nil) author.
func (b *Book) SetAuthor(a *Author) {
	b.Author = a
	if a == nil {
		b.AuthorID = nil
		return
	}
	id := a.ID
	b.AuthorID = &id
}

// Owner is an entity that can own stored images.
type Owner interface {
	OwnerKind() string
	OwnerID() int64
}
