// Package model holds the persisted catalogue entities.
package model

import (
	"time"
)

// Author is a person credited on one or more books. Biography and Photo are
// filled lazily by enrichment and never overwritten once set.
type Author struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Biography string    `json:"biography,omitempty" yaml:"biography,omitempty"`
	Photo     string    `json:"photo,omitempty" yaml:"photo,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Complete reports whether both enrichable fields are already set.
func (a *Author) Complete() bool {
	return a.Biography != "" && a.Photo != ""
}

// OwnerKind implements Owner.
func (a *Author) OwnerKind() string { return "author" }

// OwnerID implements Owner.
func (a *Author) OwnerID() int64 { return a.ID }
