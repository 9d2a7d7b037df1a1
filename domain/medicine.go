package domain

import "time"

// Stock thresholds and the near-expiry window used by the classifiers.
const (
	LowStockThreshold = 10
	NearExpiryWindow  = 30 * 24 * time.Hour
)

// StockStatus classifies a stock quantity.
type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	InStock    StockStatus = "in_stock"
)

// ExpiryStatus classifies an expiry date relative to a reference time.
type ExpiryStatus string

const (
	Expired    ExpiryStatus = "expired"
	NearExpiry ExpiryStatus = "near_expiry"
	Valid      ExpiryStatus = "valid"
)

// ClassifyStock maps a quantity onto its stock status. Quantities below
// LowStockThreshold but above zero are low.
func ClassifyStock(quantity int) StockStatus {
	switch {
	case quantity == 0:
		return OutOfStock
	case quantity < LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// ClassifyExpiry maps an expiry date onto its status. A date equal to now is
// near-expiry, not expired; the 30-day boundary itself is still near-expiry.
func ClassifyExpiry(expiry, now time.Time) ExpiryStatus {
	switch {
	case expiry.Before(now):
		return Expired
	case !expiry.After(now.Add(NearExpiryWindow)):
		return NearExpiry
	default:
		return Valid
	}
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RefillRecord is one immutable replenishment entry in a medicine's history.
type RefillRecord struct {
	InitialQuantity int        `json:"initial_quantity"`
	RefillDate      time.Time  `json:"refill_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

type Medicine struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	GenericName   string         `json:"generic_name,omitempty"`
	BatchNumber   string         `json:"batch_number"`
	Manufacturer  string         `json:"manufacturer"`
	CategoryID    string         `json:"category_id"`
	Price         float64        `json:"price"`
	StockQuantity int            `json:"stock_quantity"`
	ExpiryDate    time.Time      `json:"expiry_date"`
	Barcode       string         `json:"barcode,omitempty"`
	ImageRef      string         `json:"image_ref,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	RefillHistory []RefillRecord `json:"refill_history,omitempty"`
}

// StockStatus classifies the medicine's current stock level.
func (m Medicine) StockStatus() StockStatus {
	return ClassifyStock(m.StockQuantity)
}

// ExpiryStatus classifies the medicine's expiry date against now.
func (m Medicine) ExpiryStatus(now time.Time) ExpiryStatus {
	return ClassifyExpiry(m.ExpiryDate, now)
}
