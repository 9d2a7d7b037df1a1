package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacare/domain"
	"pharmacare/internal/kv"
)

// stubRoster serves a fixed credential list without a database.
type stubRoster struct {
	users map[string]domain.User
}

func (r stubRoster) FindByUsername(_ context.Context, username string) (domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func testRoster() stubRoster {
	return stubRoster{users: map[string]domain.User{
		"owner": {
			ID:        "1",
			Name:      "John Smith",
			Username:  "owner",
			Email:     "owner@pharmacy.com",
			Role:      domain.RoleOwner,
			Password:  "password",
			CreatedAt: time.Now(),
		},
	}}
}

func TestLoginSuccess(t *testing.T) {
	persisted := kv.NewMemoryStore()
	s := NewStore(testRoster(), persisted, zap.NewNop())
	ctx := context.Background()

	assert.True(t, s.Login(ctx, "owner", "password"))

	user, ok := s.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, domain.RoleOwner, user.Role)
	assert.Empty(t, user.Password, "session user must be password-stripped")

	// The session was persisted under the fixed key.
	data, found, err := persisted.Get(SessionKey)
	require.NoError(t, err)
	require.True(t, found)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "owner", stored["username"])
	assert.NotContains(t, stored, "password")
}

func TestLoginFailureLeavesSessionUnset(t *testing.T) {
	s := NewStore(testRoster(), kv.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	assert.False(t, s.Login(ctx, "owner", "wrong"))
	assert.False(t, s.Login(ctx, "nobody", "password"))

	_, ok := s.CurrentUser(ctx)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	persisted := kv.NewMemoryStore()
	s := NewStore(testRoster(), persisted, zap.NewNop())
	ctx := context.Background()

	require.True(t, s.Login(ctx, "owner", "password"))
	s.Logout(ctx)

	_, ok := s.CurrentUser(ctx)
	assert.False(t, ok)
	_, found, err := persisted.Get(SessionKey)
	require.NoError(t, err)
	assert.False(t, found)

	// Logging out while logged out is harmless.
	s.Logout(ctx)
}

func TestRestoreAcrossRestart(t *testing.T) {
	persisted := kv.NewMemoryStore()
	ctx := context.Background()

	first := NewStore(testRoster(), persisted, zap.NewNop())
	require.True(t, first.Login(ctx, "owner", "password"))

	// A new store over the same persistence restores the session.
	second := NewStore(testRoster(), persisted, zap.NewNop())
	<-second.Ready()
	user, ok := second.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "owner", user.Username)
	assert.Empty(t, user.Password)
}

func TestRestoreDiscardsGarbage(t *testing.T) {
	persisted := kv.NewMemoryStore()
	require.NoError(t, persisted.Set(SessionKey, []byte("{not json")))

	s := NewStore(testRoster(), persisted, zap.NewNop())
	_, ok := s.CurrentUser(context.Background())
	assert.False(t, ok)
}
