package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmacare/domain"
)

// MedicineStore persists medicines and their append-only refill history.
type MedicineStore struct {
	db *sqlx.DB
}

func NewMedicineStore(db *sqlx.DB) *MedicineStore {
	return &MedicineStore{db: db}
}

type medicineRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	GenericName   string  `db:"generic_name"`
	BatchNumber   string  `db:"batch_number"`
	Manufacturer  string  `db:"manufacturer"`
	CategoryID    string  `db:"category_id"`
	Price         float64 `db:"price"`
	StockQuantity int     `db:"stock_quantity"`
	ExpiryDate    string  `db:"expiry_date"`
	Barcode       string  `db:"barcode"`
	ImageRef      string  `db:"image_ref"`
	CreatedAt     string  `db:"created_at"`
	UpdatedAt     string  `db:"updated_at"`
}

type refillRow struct {
	MedicineID      string  `db:"medicine_id"`
	InitialQuantity int     `db:"initial_quantity"`
	RefillDate      string  `db:"refill_date"`
	EndDate         *string `db:"end_date"`
}

func (r medicineRow) toDomain() (domain.Medicine, error) {
	expiry, err := parseTime(r.ExpiryDate)
	if err != nil {
		return domain.Medicine{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Medicine{}, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.Medicine{}, err
	}
	return domain.Medicine{
		ID:            r.ID,
		Name:          r.Name,
		GenericName:   r.GenericName,
		BatchNumber:   r.BatchNumber,
		Manufacturer:  r.Manufacturer,
		CategoryID:    r.CategoryID,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		ExpiryDate:    expiry,
		Barcode:       r.Barcode,
		ImageRef:      r.ImageRef,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func (r refillRow) toDomain() (domain.RefillRecord, error) {
	refillDate, err := parseTime(r.RefillDate)
	if err != nil {
		return domain.RefillRecord{}, err
	}
	endDate, err := parseTimePtr(r.EndDate)
	if err != nil {
		return domain.RefillRecord{}, err
	}
	return domain.RefillRecord{
		InitialQuantity: r.InitialQuantity,
		RefillDate:      refillDate,
		EndDate:         endDate,
	}, nil
}

func (s *MedicineStore) Insert(ctx context.Context, m domain.Medicine) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO medicines (id, name, generic_name, batch_number, manufacturer, category_id, price, stock_quantity, expiry_date, barcode, image_ref, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.GenericName, m.BatchNumber, m.Manufacturer, m.CategoryID,
		m.Price, m.StockQuantity, formatTime(m.ExpiryDate), m.Barcode, m.ImageRef,
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	return err
}

// Update replaces every mutable field. ID and created_at are preserved; the
// refill history is untouched.
func (s *MedicineStore) Update(ctx context.Context, m domain.Medicine) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE medicines SET name = ?, generic_name = ?, batch_number = ?, manufacturer = ?, category_id = ?, price = ?, stock_quantity = ?, expiry_date = ?, barcode = ?, image_ref = ?, updated_at = ?
         WHERE id = ?`,
		m.Name, m.GenericName, m.BatchNumber, m.Manufacturer, m.CategoryID,
		m.Price, m.StockQuantity, formatTime(m.ExpiryDate), m.Barcode, m.ImageRef,
		formatTime(m.UpdatedAt), m.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a medicine by id. Missing ids are a silent no-op.
func (s *MedicineStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	return err
}

// Get loads one medicine including its refill history.
func (s *MedicineStore) Get(ctx context.Context, id string) (domain.Medicine, error) {
	var row medicineRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Medicine{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Medicine{}, err
	}
	m, err := row.toDomain()
	if err != nil {
		return domain.Medicine{}, err
	}
	history, err := s.refillHistory(ctx, id)
	if err != nil {
		return domain.Medicine{}, err
	}
	m.RefillHistory = history
	return m, nil
}

// List returns every medicine in insertion order, without refill histories.
func (s *MedicineStore) List(ctx context.Context) ([]domain.Medicine, error) {
	var rows []medicineRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM medicines ORDER BY rowid`); err != nil {
		return nil, err
	}
	medicines := make([]domain.Medicine, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	return medicines, nil
}

func (s *MedicineStore) refillHistory(ctx context.Context, medicineID string) ([]domain.RefillRecord, error) {
	var rows []refillRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT medicine_id, initial_quantity, refill_date, end_date FROM refills WHERE medicine_id = ? ORDER BY id`, medicineID)
	if err != nil {
		return nil, err
	}
	history := make([]domain.RefillRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, nil
}

// AppendRefill records a replenishment: the refill row is inserted and the
// stock incremented in one transaction. The history never shrinks.
func (s *MedicineStore) AppendRefill(ctx context.Context, medicineID string, rec domain.RefillRecord, updatedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refills (medicine_id, initial_quantity, refill_date, end_date) VALUES (?, ?, ?, ?)`,
		medicineID, rec.InitialQuantity, formatTime(rec.RefillDate), formatTimePtr(rec.EndDate)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE medicines SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE id = ?`,
		rec.InitialQuantity, formatTime(updatedAt), medicineID); err != nil {
		return err
	}
	return tx.Commit()
}
