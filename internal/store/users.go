package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pharmacare/domain"
)

// UserStore persists the user roster.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

type userRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Username  string `db:"username"`
	Email     string `db:"email"`
	Password  string `db:"password"`
	Role      string `db:"role"`
	CreatedAt string `db:"created_at"`
}

func (r userRow) toDomain() (domain.User, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        r.ID,
		Name:      r.Name,
		Username:  r.Username,
		Email:     r.Email,
		Role:      domain.Role(r.Role),
		Password:  r.Password,
		CreatedAt: createdAt,
	}, nil
}

func (s *UserStore) Insert(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, password, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Username, u.Email, u.Password, string(u.Role), formatTime(u.CreatedAt))
	return err
}

func (s *UserStore) Update(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, username = ?, email = ?, password = ?, role = ? WHERE id = ?`,
		u.Name, u.Username, u.Email, u.Password, string(u.Role), u.ID)
	return err
}

// Delete removes a user by id. Missing ids are a silent no-op.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func (s *UserStore) Get(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return row.toDomain()
}

// FindByUsername looks up a user by exact username match.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return row.toDomain()
}

// List returns every user in insertion order.
func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY rowid`); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
