package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lepinkainen/libris/internal/model"
)

const authorColumns = "id, name, biography, photo, created_at"

func scanAuthor(row interface{ Scan(...any) error }) (*model.Author, error) {
	var a model.Author
	if err := row.Scan(&a.ID, &a.Name, &a.Biography, &a.Photo, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindOrCreateAuthor returns the oldest author with exactly this name,
// creating one when none exists. Two concurrent callers may both create.
func (s *SQLiteStore) FindOrCreateAuthor(ctx context.Context, name string) (*model.Author, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+authorColumns+" FROM authors WHERE name = ? ORDER BY id LIMIT 1", name)
	a, err := scanAuthor(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query author %q: %w", name, err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO authors (name, biography, photo, created_at) VALUES (?, '', '', ?)", name, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create author %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read author id: %w", err)
	}
	return &model.Author{ID: id, Name: name, CreatedAt: now}, nil
}

// GetAuthor loads an author by id.
func (s *SQLiteStore) GetAuthor(ctx context.Context, id int64) (*model.Author, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx, "SELECT "+authorColumns+" FROM authors WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("author %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load author %d: %w", id, err)
	}
	return a, nil
}

// SaveAuthor writes the mutable author fields.
func (s *SQLiteStore) SaveAuthor(ctx context.Context, a *model.Author) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE authors SET name = ?, biography = ?, photo = ? WHERE id = ?",
		a.Name, a.Biography, a.Photo, a.ID)
	if err != nil {
		return fmt.Errorf("failed to save author %d: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("author %d: %w", a.ID, ErrNotFound)
	}
	return nil
}
