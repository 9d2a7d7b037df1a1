package pos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacare/domain"
	"pharmacare/internal/store"
)

// Service finalizes carts into sales.
type Service struct {
	sales *store.SaleStore
	now   func() time.Time
}

func NewService(sales *store.SaleStore) *Service {
	return &Service{sales: sales, now: time.Now}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Checkout materializes the cart into a Sale and its SaleItems. The sale, the
// line items and the stock decrements are committed in one transaction; the
// cart is cleared only on success. An empty cart is rejected before anything
// is written.
func (s *Service) Checkout(ctx context.Context, cart *Cart, cashierID string) (domain.Sale, []domain.SaleItem, error) {
	if cart.Empty() {
		return domain.Sale{}, nil, domain.ErrEmptyCart
	}

	now := s.now()
	sale := domain.Sale{
		ID:            uuid.NewString(),
		Date:          now,
		TotalAmount:   roundCurrency(cart.Total()),
		CashierID:     cashierID,
		CustomerName:  strings.TrimSpace(cart.customerName),
		CustomerPhone: strings.TrimSpace(cart.customerPhone),
		CreatedAt:     now,
	}

	lines := cart.Items()
	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		snapshot := line.Medicine
		items = append(items, domain.SaleItem{
			ID:         uuid.NewString(),
			SaleID:     sale.ID,
			MedicineID: line.Medicine.ID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			Medicine:   &snapshot,
		})
	}

	if err := s.sales.CreateSale(ctx, sale, items); err != nil {
		return domain.Sale{}, nil, err
	}
	cart.Clear()
	return sale, items, nil
}
