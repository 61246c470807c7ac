package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lepinkainen/libris/internal/model"
)

const bookSelect = `
SELECT b.id, b.title, b.author_id, b.isbn, b.description, b.published_date,
	b.cover, b.average_rating, b.created_at,
	a.id, a.name, a.biography, a.photo, a.created_at
FROM books b
LEFT JOIN authors a ON a.id = b.author_id
`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var (
		b         model.Book
		authorID  sql.NullInt64
		isbn      sql.NullString
		published sql.NullString
		rating    sql.NullFloat64

		aID        sql.NullInt64
		aName      sql.NullString
		aBio       sql.NullString
		aPhoto     sql.NullString
		aCreatedAt sql.NullTime
	)
	err := row.Scan(&b.ID, &b.Title, &authorID, &isbn, &b.Description, &published,
		&b.Cover, &rating, &b.CreatedAt,
		&aID, &aName, &aBio, &aPhoto, &aCreatedAt)
	if err != nil {
		return nil, err
	}

	b.ISBN = isbn.String
	if published.Valid {
		b.PublishedDate = model.ParsePublishedDate(published.String)
	}
	if rating.Valid {
		r := rating.Float64
		b.AverageRating = &r
	}
	if authorID.Valid && aID.Valid {
		b.SetAuthor(&model.Author{
			ID:        aID.Int64,
			Name:      aName.String,
			Biography: aBio.String,
			Photo:     aPhoto.String,
			CreatedAt: aCreatedAt.Time,
		})
	}
	return &b, nil
}

func publishedColumns(d *model.PublishedDate) (sql.NullString, sql.NullString) {
	if d == nil || d.IsZero() {
		return sql.NullString{}, sql.NullString{}
	}
	return nullString(d.String()), nullString(string(d.Precision))
}

// FindBookByISBN returns the book with this ISBN or ErrNotFound.
func (s *SQLiteStore) FindBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	if isbn == "" {
		return nil, ErrNotFound
	}
	b, err := scanBook(s.db.QueryRowContext(ctx, bookSelect+"WHERE b.isbn = ?", isbn))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book with isbn %s: %w", isbn, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query book by isbn %s: %w", isbn, err)
	}
	return b, nil
}

// GetBook loads a book and its author by id.
func (s *SQLiteStore) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, bookSelect+"WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book %d: %w", id, err)
	}
	return b, nil
}

// ListBooks returns books newest first.
func (s *SQLiteStore) ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, error) {
	rows, err := s.db.QueryContext(ctx, bookSelect+"ORDER BY b.id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var books []*model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// CreateBook inserts b and sets its ID and CreatedAt. A clash on ISBN
// returns ErrDuplicateISBN.
func (s *SQLiteStore) CreateBook(ctx context.Context, b *model.Book) error {
	now := time.Now().UTC()
	date, precision := publishedColumns(b.PublishedDate)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO books (title, author_id, isbn, description, published_date, published_precision, cover, average_rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.AuthorID, nullString(b.ISBN), b.Description, date, precision, b.Cover, b.AverageRating, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("book with isbn %s: %w", b.ISBN, ErrDuplicateISBN)
	}
	if err != nil {
		return fmt.Errorf("failed to create book %q: %w", b.Title, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read book id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	return nil
}

// SaveBook writes all mutable book fields.
func (s *SQLiteStore) SaveBook(ctx context.Context, b *model.Book) error {
	date, precision := publishedColumns(b.PublishedDate)

	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET title = ?, author_id = ?, isbn = ?, description = ?, published_date = ?,
			published_precision = ?, cover = ?, average_rating = ?
		WHERE id = ?`,
		b.Title, b.AuthorID, nullString(b.ISBN), b.Description, date, precision, b.Cover, b.AverageRating, b.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("book with isbn %s: %w", b.ISBN, ErrDuplicateISBN)
	}
	if err != nil {
		return fmt.Errorf("failed to save book %d: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("book %d: %w", b.ID, ErrNotFound)
	}
	return nil
}
