package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		quantity int
		want     StockStatus
	}{
		{0, OutOfStock},
		{1, LowStock},
		{9, LowStock},
		{10, InStock},
		{150, InStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStock(tt.quantity), "quantity %d", tt.quantity)
	}
}

func TestClassifyExpiry(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name   string
		expiry time.Time
		want   ExpiryStatus
	}{
		{"yesterday is expired", now.Add(-day), Expired},
		{"exactly now is near expiry, not expired", now, NearExpiry},
		{"tomorrow is near expiry", now.Add(day), NearExpiry},
		{"exactly 30 days out is still near expiry", now.Add(30 * day), NearExpiry},
		{"31 days out is valid", now.Add(31 * day), Valid},
		{"next year is valid", now.AddDate(1, 0, 0), Valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyExpiry(tt.expiry, now))
		})
	}
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, CanManageMedicines(RoleOwner))
	assert.True(t, CanManageMedicines(RolePharmacist))
	assert.False(t, CanManageMedicines(RoleCashier))

	assert.True(t, CanManageUsers(RoleOwner))
	assert.False(t, CanManageUsers(RolePharmacist))
	assert.False(t, CanManageUsers(RoleCashier))

	for _, r := range []Role{RoleOwner, RolePharmacist, RoleCashier} {
		assert.True(t, CanSell(r))
	}
	assert.False(t, CanSell(Role("visitor")))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("pharmacist")
	assert.NoError(t, err)
	assert.Equal(t, RolePharmacist, role)

	_, err = ParseRole("admin")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}
