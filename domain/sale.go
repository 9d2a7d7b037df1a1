package domain

import "time"

// Sale is one completed checkout transaction. It is a receipt, never edited
// after creation.
type Sale struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	TotalAmount   float64   `json:"total_amount"`
	CashierID     string    `json:"cashier_id"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaleItem is one line within a Sale. UnitPrice is captured at checkout time,
// not a live reference to the medicine's price. The embedded Medicine snapshot
// exists only for receipt display.
type SaleItem struct {
	ID         string    `json:"id"`
	SaleID     string    `json:"sale_id"`
	MedicineID string    `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	Medicine   *Medicine `json:"medicine,omitempty"`
}
