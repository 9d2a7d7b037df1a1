package pos

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacare/domain"
	"pharmacare/internal/database"
	"pharmacare/internal/migrations"
	"pharmacare/internal/store"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	return db
}

func TestCheckoutEmptyCartIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(store.NewSaleStore(db))

	cart := NewCart()
	_, _, err := svc.Checkout(context.Background(), cart, "1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	sales, err := store.NewSaleStore(db).ListSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.True(t, cart.Empty())
}

func TestCheckoutCreatesSaleAndDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	medicines := store.NewMedicineStore(db)
	sales := store.NewSaleStore(db)
	svc := NewService(sales)

	med := testMedicine("m1", 5.00, 3)
	require.NoError(t, medicines.Insert(ctx, med))

	cart := NewCart()
	require.True(t, cart.AddItem(med))
	require.True(t, cart.AddItem(med))
	require.True(t, cart.AddItem(med))
	require.False(t, cart.AddItem(med)) // capped at stock
	cart.SetDiscountPercent(10)
	cart.SetCustomer("Jane Doe", "555-0101")

	sale, items, err := svc.Checkout(ctx, cart, "2")
	require.NoError(t, err)

	// subtotal 15.00, 10% discount -> 13.50
	assert.InDelta(t, 13.50, sale.TotalAmount, 1e-9)
	assert.Equal(t, "2", sale.CashierID)
	assert.Equal(t, "Jane Doe", sale.CustomerName)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.InDelta(t, 5.00, items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 15.00, items[0].TotalPrice, 1e-9)
	require.NotNil(t, items[0].Medicine)
	assert.Equal(t, "Paracetamol", items[0].Medicine.Name)

	// Cart cleared as a side effect.
	assert.True(t, cart.Empty())
	assert.Zero(t, cart.DiscountPercent())

	// Stock decremented atomically with the sale.
	updated, err := medicines.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, updated.StockQuantity)

	persisted, err := sales.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, sale.ID, persisted[0].ID)
	assert.InDelta(t, 13.50, persisted[0].TotalAmount, 1e-9)

	lines, err := sales.ItemsForSale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "m1", lines[0].MedicineID)
}

func TestCheckoutRejectsStaleCart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	medicines := store.NewMedicineStore(db)
	svc := NewService(store.NewSaleStore(db))

	med := testMedicine("m1", 5.00, 2)
	require.NoError(t, medicines.Insert(ctx, med))

	cart := NewCart()
	require.True(t, cart.AddItem(med))
	require.True(t, cart.AddItem(med))

	// Stock shrinks between cart build and checkout.
	med.StockQuantity = 1
	med.UpdatedAt = time.Now()
	require.NoError(t, medicines.Update(ctx, med))

	_, _, err := svc.Checkout(ctx, cart, "1")
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	// Nothing committed, cart intact.
	updated, err := medicines.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)
	assert.False(t, cart.Empty())
}
