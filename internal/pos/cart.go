// Package pos implements the point-of-sale transaction: a transient cart
// bounded by available stock, and checkout into a persisted sale.
package pos

import (
	"math"

	"pharmacare/domain"
)

// CartItem is one working line during checkout. The unit price is copied from
// the medicine at add time, not read live.
type CartItem struct {
	Medicine   domain.Medicine `json:"medicine"`
	Quantity   int             `json:"quantity"`
	UnitPrice  float64         `json:"unit_price"`
	TotalPrice float64         `json:"total_price"`
}

// Cart is the in-progress transaction. It is destroyed by Clear or by a
// completed checkout and is never persisted.
type Cart struct {
	items           []CartItem
	customerName    string
	customerPhone   string
	discountPercent float64
}

func NewCart() *Cart {
	return &Cart{}
}

// AddItem puts one unit of the medicine in the cart, or bumps an existing
// line by one. An increment past the available stock is refused; the return
// value reports rejected-unchanged rather than raising an error.
func (c *Cart) AddItem(medicine domain.Medicine) bool {
	for i := range c.items {
		if c.items[i].Medicine.ID == medicine.ID {
			if c.items[i].Quantity+1 > medicine.StockQuantity {
				return false
			}
			c.items[i].Quantity++
			c.items[i].TotalPrice = float64(c.items[i].Quantity) * c.items[i].UnitPrice
			return true
		}
	}
	if medicine.StockQuantity < 1 {
		return false
	}
	c.items = append(c.items, CartItem{
		Medicine:   medicine,
		Quantity:   1,
		UnitPrice:  medicine.Price,
		TotalPrice: medicine.Price,
	})
	return true
}

// SetQuantity updates a line's quantity. Zero or less removes the line; a
// quantity above the medicine's stock is refused and leaves the line alone.
func (c *Cart) SetQuantity(medicineID string, quantity int) bool {
	if quantity <= 0 {
		c.RemoveItem(medicineID)
		return true
	}
	for i := range c.items {
		if c.items[i].Medicine.ID == medicineID {
			if quantity > c.items[i].Medicine.StockQuantity {
				return false
			}
			c.items[i].Quantity = quantity
			c.items[i].TotalPrice = float64(quantity) * c.items[i].UnitPrice
			return true
		}
	}
	return false
}

// RemoveItem drops a line from the cart.
func (c *Cart) RemoveItem(medicineID string) {
	for i := range c.items {
		if c.items[i].Medicine.ID == medicineID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and resets customer details and discount.
func (c *Cart) Clear() {
	c.items = nil
	c.customerName = ""
	c.customerPhone = ""
	c.discountPercent = 0
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []CartItem {
	items := make([]CartItem, len(c.items))
	copy(items, c.items)
	return items
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

// SetCustomer records the optional customer details for the receipt.
func (c *Cart) SetCustomer(name, phone string) {
	c.customerName = name
	c.customerPhone = phone
}

// SetDiscountPercent sets the caller-supplied discount. Values are expected in
// [0,100]; clamping is the presentation boundary's concern, not the cart's.
func (c *Cart) SetDiscountPercent(p float64) {
	c.discountPercent = p
}

func (c *Cart) DiscountPercent() float64 {
	return c.discountPercent
}

// Subtotal is the sum of line totals before discount.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, item := range c.items {
		sum += item.TotalPrice
	}
	return sum
}

// DiscountAmount is the discount applied to the subtotal.
func (c *Cart) DiscountAmount() float64 {
	return c.Subtotal() * c.discountPercent / 100
}

// Total is the amount due after discount.
func (c *Cart) Total() float64 {
	return c.Subtotal() - c.DiscountAmount()
}

// roundCurrency keeps amounts at two decimal places.
func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
