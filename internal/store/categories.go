package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pharmacare/domain"
)

// CategoryStore persists the static category lookup.
type CategoryStore struct {
	db *sqlx.DB
}

func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

type categoryRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func (r categoryRow) toDomain() (domain.Category, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   createdAt,
	}, nil
}

func (s *CategoryStore) Insert(ctx context.Context, c domain.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, formatTime(c.CreatedAt))
	return err
}

func (s *CategoryStore) Get(ctx context.Context, id string) (domain.Category, error) {
	var row categoryRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	return row.toDomain()
}

func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM categories ORDER BY rowid`); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}
