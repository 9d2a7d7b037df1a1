// Package users implements roster administration. The presentation boundary
// is expected to gate every operation here to the owner role.
package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacare/domain"
	"pharmacare/internal/store"
)

// Service owns the user roster.
type Service struct {
	users *store.UserStore
	now   func() time.Time
}

func NewService(users *store.UserStore) *Service {
	return &Service{users: users, now: time.Now}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Filter narrows List results: free text over name, username and email, and
// an exact role or the "all" wildcard.
type Filter struct {
	Text string
	Role string
}

func (f Filter) matches(u domain.User) bool {
	if f.Role != "" && f.Role != "all" && string(u.Role) != f.Role {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(f.Text))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Name), text) ||
		strings.Contains(strings.ToLower(u.Username), text) ||
		strings.Contains(strings.ToLower(u.Email), text)
}

// List returns matching users with passwords stripped.
func (s *Service) List(ctx context.Context, filter Filter) ([]domain.User, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.User, 0, len(all))
	for _, u := range all {
		if filter.matches(u) {
			matched = append(matched, u.Sanitized())
		}
	}
	return matched, nil
}

// Input carries the admin form fields.
type Input struct {
	Name     string
	Username string
	Email    string
	Role     string
	Password string
}

func (in Input) validate(passwordRequired bool) (domain.Role, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", domain.Validationf("name is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		return "", domain.Validationf("username is required")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return "", err
	}
	if passwordRequired && in.Password == "" {
		return "", domain.Validationf("password is required")
	}
	return role, nil
}

// Create adds a user. Password is required.
func (s *Service) Create(ctx context.Context, in Input) (domain.User, error) {
	role, err := in.validate(true)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		Role:      role,
		Password:  in.Password,
		CreatedAt: s.now(),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u.Sanitized(), nil
}

// Update edits a user. An empty password leaves the stored one unchanged; the
// password is never echoed back.
func (s *Service) Update(ctx context.Context, id string, in Input) (domain.User, error) {
	role, err := in.validate(false)
	if err != nil {
		return domain.User{}, err
	}
	existing, err := s.users.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	existing.Name = strings.TrimSpace(in.Name)
	existing.Username = strings.TrimSpace(in.Username)
	existing.Email = strings.TrimSpace(in.Email)
	existing.Role = role
	if in.Password != "" {
		existing.Password = in.Password
	}
	if err := s.users.Update(ctx, existing); err != nil {
		return domain.User{}, err
	}
	return existing.Sanitized(), nil
}

// Remove deletes a user. An absent id is a silent no-op.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
