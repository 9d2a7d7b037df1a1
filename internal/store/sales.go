package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmacare/domain"
)

// SaleStore persists completed sales and their line items.
type SaleStore struct {
	db *sqlx.DB
}

func NewSaleStore(db *sqlx.DB) *SaleStore {
	return &SaleStore{db: db}
}

type saleRow struct {
	ID            string  `db:"id"`
	Date          string  `db:"date"`
	TotalAmount   float64 `db:"total_amount"`
	CashierID     string  `db:"cashier_id"`
	CustomerName  string  `db:"customer_name"`
	CustomerPhone string  `db:"customer_phone"`
	CreatedAt     string  `db:"created_at"`
}

type saleItemRow struct {
	ID         string  `db:"id"`
	SaleID     string  `db:"sale_id"`
	MedicineID string  `db:"medicine_id"`
	Quantity   int     `db:"quantity"`
	UnitPrice  float64 `db:"unit_price"`
	TotalPrice float64 `db:"total_price"`
}

func (r saleRow) toDomain() (domain.Sale, error) {
	date, err := parseTime(r.Date)
	if err != nil {
		return domain.Sale{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Sale{}, err
	}
	return domain.Sale{
		ID:            r.ID,
		Date:          date,
		TotalAmount:   r.TotalAmount,
		CashierID:     r.CashierID,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		CreatedAt:     createdAt,
	}, nil
}

func (r saleItemRow) toDomain() domain.SaleItem {
	return domain.SaleItem{
		ID:         r.ID,
		SaleID:     r.SaleID,
		MedicineID: r.MedicineID,
		Quantity:   r.Quantity,
		UnitPrice:  r.UnitPrice,
		TotalPrice: r.TotalPrice,
	}
}

// ErrInsufficientStock is returned when a checkout races past the quantity a
// medicine still has on hand.
var ErrInsufficientStock = errors.New("insufficient stock")

// CreateSale writes the sale, its items and the matching stock decrements in a
// single transaction. Stock is re-validated inside the transaction so a sale
// can never push a quantity below zero.
func (s *SaleStore) CreateSale(ctx context.Context, sale domain.Sale, items []domain.SaleItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (id, date, total_amount, cashier_id, customer_name, customer_phone, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, formatTime(sale.Date), sale.TotalAmount, sale.CashierID,
		sale.CustomerName, sale.CustomerPhone, formatTime(sale.CreatedAt))
	if err != nil {
		return err
	}

	for _, item := range items {
		var available int
		err := tx.GetContext(ctx, &available,
			`SELECT stock_quantity FROM medicines WHERE id = ?`, item.MedicineID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("medicine %s: %w", item.MedicineID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if available < item.Quantity {
			return fmt.Errorf("medicine %s: %w", item.MedicineID, ErrInsufficientStock)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE medicines SET stock_quantity = stock_quantity - ?, updated_at = ? WHERE id = ?`,
			item.Quantity, formatTime(sale.CreatedAt), item.MedicineID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sale_items (id, sale_id, medicine_id, quantity, unit_price, total_price) VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.SaleID, item.MedicineID, item.Quantity, item.UnitPrice, item.TotalPrice); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListSales returns every sale in insertion order.
func (s *SaleStore) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var rows []saleRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM sales ORDER BY rowid`); err != nil {
		return nil, err
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		sale, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// ListItems returns every sale item in insertion order across all sales.
func (s *SaleStore) ListItems(ctx context.Context) ([]domain.SaleItem, error) {
	var rows []saleItemRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM sale_items ORDER BY rowid`); err != nil {
		return nil, err
	}
	items := make([]domain.SaleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

// ItemsForSale returns the line items of one sale.
func (s *SaleStore) ItemsForSale(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	var rows []saleItemRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM sale_items WHERE sale_id = ? ORDER BY rowid`, saleID); err != nil {
		return nil, err
	}
	items := make([]domain.SaleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}
