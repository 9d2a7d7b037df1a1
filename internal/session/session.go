// Package session holds the current authenticated user. Credentials are
// checked against the user roster by plain equality; the active session is
// mirrored through the key-value boundary so it survives a restart.
package session

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"pharmacare/domain"
	"pharmacare/internal/kv"
)

// SessionKey is the fixed key the serialized session lives under.
const SessionKey = "pharmacy_user"

// Roster is the credential lookup the store authenticates against.
type Roster interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// Store tracks the current user. The persisted copy is restored once,
// asynchronously, at construction; CurrentUser blocks until that finishes.
type Store struct {
	roster Roster
	kv     kv.Store
	logger *zap.Logger

	ready   chan struct{}
	ops     chan func(current *domain.User)
	current *domain.User
}

// NewStore builds the session store and kicks off the one-time restore.
func NewStore(roster Roster, persisted kv.Store, logger *zap.Logger) *Store {
	s := &Store{
		roster: roster,
		kv:     persisted,
		logger: logger,
		ready:  make(chan struct{}),
		ops:    make(chan func(current *domain.User)),
	}
	go s.run()
	return s
}

// run restores the persisted session, then serializes all session access on a
// single goroutine. This is the only concurrency coordination in the system.
func (s *Store) run() {
	s.restore()
	close(s.ready)
	for op := range s.ops {
		op(s.current)
	}
}

func (s *Store) restore() {
	data, ok, err := s.kv.Get(SessionKey)
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.Warn("discarding unreadable session", zap.Error(err))
		return
	}
	user.Password = ""
	s.current = &user
}

// do runs fn on the session goroutine after the restore has completed.
func (s *Store) do(ctx context.Context, fn func(current *domain.User)) error {
	done := make(chan struct{})
	select {
	case s.ops <- func(current *domain.User) {
		fn(current)
		close(done)
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login checks the username and password against the roster. On success the
// password-stripped user becomes the current session and is persisted; on
// failure the session is left untouched and false is returned.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	user, err := s.roster.FindByUsername(ctx, username)
	if err != nil || user.Password != password {
		return false
	}
	sanitized := user.Sanitized()

	ok := false
	if err := s.do(ctx, func(_ *domain.User) {
		data, err := json.Marshal(sanitized)
		if err != nil {
			s.logger.Error("session encode failed", zap.Error(err))
			return
		}
		if err := s.kv.Set(SessionKey, data); err != nil {
			s.logger.Warn("session persist failed", zap.Error(err))
		}
		s.current = &sanitized
		ok = true
	}); err != nil {
		return false
	}
	return ok
}

// Logout clears the session and its persisted copy. Calling it while logged
// out is harmless.
func (s *Store) Logout(ctx context.Context) {
	_ = s.do(ctx, func(_ *domain.User) {
		s.current = nil
		if err := s.kv.Delete(SessionKey); err != nil {
			s.logger.Warn("session delete failed", zap.Error(err))
		}
	})
}

// CurrentUser returns the authenticated user, if any. It waits for the
// startup restore, so callers never observe a half-loaded identity.
func (s *Store) CurrentUser(ctx context.Context) (domain.User, bool) {
	var (
		user  domain.User
		found bool
	)
	if err := s.do(ctx, func(current *domain.User) {
		if current != nil {
			user = *current
			found = true
		}
	}); err != nil {
		return domain.User{}, false
	}
	return user, found
}

// Ready is closed once the persisted session has been restored.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}
