package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacare/domain"
	"pharmacare/internal/database"
	"pharmacare/internal/migrations"
	"pharmacare/internal/store"
)

func TestRunSeedsRosterCategoriesAndMedicines(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	medicineStore := store.NewMedicineStore(db)
	ctx := context.Background()
	require.NoError(t, Run(ctx, userStore, categoryStore, medicineStore))

	// The known demo logins exist with their roles.
	owner, err := userStore.FindByUsername(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, owner.Role)
	assert.Equal(t, "password", owner.Password)

	pharmacist, err := userStore.FindByUsername(ctx, "pharmacist")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePharmacist, pharmacist.Role)

	categories, err := categoryStore.List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)

	medicines, err := medicineStore.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, medicines)

	// Every sample medicine references a seeded category.
	ids := map[string]bool{}
	for _, c := range categories {
		ids[c.ID] = true
	}
	for _, m := range medicines {
		assert.True(t, ids[m.CategoryID], "medicine %s has unknown category %s", m.Name, m.CategoryID)
	}
}
