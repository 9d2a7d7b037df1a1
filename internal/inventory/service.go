// Package inventory implements medicine tracking: CRUD, search, stock and
// expiry classification, and refill recording.
package inventory

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacare/domain"
	"pharmacare/internal/store"
)

// WildcardCategory matches every category in a filter.
const WildcardCategory = "all"

// Service owns the medicine collection.
type Service struct {
	medicines *store.MedicineStore
	now       func() time.Time
}

func NewService(medicines *store.MedicineStore) *Service {
	return &Service{medicines: medicines, now: time.Now}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Filter narrows List results. Text matches name, manufacturer or batch
// number, case-insensitively; CategoryID is exact or the "all" wildcard.
type Filter struct {
	Text       string
	CategoryID string
}

func (f Filter) matches(m domain.Medicine) bool {
	if f.CategoryID != "" && f.CategoryID != WildcardCategory && m.CategoryID != f.CategoryID {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(f.Text))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Name), text) ||
		strings.Contains(strings.ToLower(m.Manufacturer), text) ||
		strings.Contains(strings.ToLower(m.BatchNumber), text)
}

// List returns the medicines matching the filter, in insertion order.
func (s *Service) List(ctx context.Context, filter Filter) ([]domain.Medicine, error) {
	all, err := s.medicines.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Medicine, 0, len(all))
	for _, m := range all {
		if filter.matches(m) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// Get loads one medicine with its refill history.
func (s *Service) Get(ctx context.Context, id string) (domain.Medicine, error) {
	return s.medicines.Get(ctx, id)
}

// Input carries the textual form fields for create and update. Price and
// stock arrive as text and are validated before any mutation.
type Input struct {
	Name          string
	GenericName   string
	BatchNumber   string
	Manufacturer  string
	CategoryID    string
	Price         string
	StockQuantity string
	ExpiryDate    string
	Barcode       string
	ImageRef      string
}

type parsedInput struct {
	price  float64
	stock  int
	expiry time.Time
}

func (in Input) parse() (parsedInput, error) {
	if strings.TrimSpace(in.Name) == "" {
		return parsedInput{}, domain.Validationf("name is required")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	if err != nil || math.IsInf(price, 0) || math.IsNaN(price) || price < 0 {
		return parsedInput{}, domain.Validationf("price must be a non-negative number")
	}
	stock, err := strconv.Atoi(strings.TrimSpace(in.StockQuantity))
	if err != nil || stock < 0 {
		return parsedInput{}, domain.Validationf("stock quantity must be a non-negative integer")
	}
	expiry, err := parseDate(in.ExpiryDate)
	if err != nil {
		return parsedInput{}, domain.Validationf("expiry date must be a valid date")
	}
	return parsedInput{price: price, stock: stock, expiry: expiry}, nil
}

// parseDate accepts the date-only form format alongside full timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Create validates the input and adds a new medicine.
func (s *Service) Create(ctx context.Context, in Input) (domain.Medicine, error) {
	parsed, err := in.parse()
	if err != nil {
		return domain.Medicine{}, err
	}
	now := s.now()
	m := domain.Medicine{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		GenericName:   strings.TrimSpace(in.GenericName),
		BatchNumber:   strings.TrimSpace(in.BatchNumber),
		Manufacturer:  strings.TrimSpace(in.Manufacturer),
		CategoryID:    in.CategoryID,
		Price:         parsed.price,
		StockQuantity: parsed.stock,
		ExpiryDate:    parsed.expiry,
		Barcode:       strings.TrimSpace(in.Barcode),
		ImageRef:      strings.TrimSpace(in.ImageRef),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.medicines.Insert(ctx, m); err != nil {
		return domain.Medicine{}, err
	}
	return m, nil
}

// Update replaces the mutable fields of an existing medicine. ID, createdAt
// and the refill history are preserved; updatedAt advances.
func (s *Service) Update(ctx context.Context, id string, in Input) (domain.Medicine, error) {
	parsed, err := in.parse()
	if err != nil {
		return domain.Medicine{}, err
	}
	existing, err := s.medicines.Get(ctx, id)
	if err != nil {
		return domain.Medicine{}, err
	}
	existing.Name = strings.TrimSpace(in.Name)
	existing.GenericName = strings.TrimSpace(in.GenericName)
	existing.BatchNumber = strings.TrimSpace(in.BatchNumber)
	existing.Manufacturer = strings.TrimSpace(in.Manufacturer)
	existing.CategoryID = in.CategoryID
	existing.Price = parsed.price
	existing.StockQuantity = parsed.stock
	existing.ExpiryDate = parsed.expiry
	existing.Barcode = strings.TrimSpace(in.Barcode)
	existing.ImageRef = strings.TrimSpace(in.ImageRef)
	existing.UpdatedAt = s.now()
	if err := s.medicines.Update(ctx, existing); err != nil {
		return domain.Medicine{}, err
	}
	return existing, nil
}

// Remove deletes a medicine. An absent id is a silent no-op; confirming
// destructive intent is the caller's job.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.medicines.Delete(ctx, id)
}

// Refill appends a refill record and increases the stock by its quantity.
// Stock is only ever increased here.
func (s *Service) Refill(ctx context.Context, id string, quantity int, refillDate time.Time, endDate *time.Time) (domain.Medicine, error) {
	if quantity <= 0 {
		return domain.Medicine{}, domain.Validationf("refill quantity must be a positive integer")
	}
	if _, err := s.medicines.Get(ctx, id); err != nil {
		return domain.Medicine{}, err
	}
	rec := domain.RefillRecord{
		InitialQuantity: quantity,
		RefillDate:      refillDate,
		EndDate:         endDate,
	}
	if err := s.medicines.AppendRefill(ctx, id, rec, s.now()); err != nil {
		return domain.Medicine{}, err
	}
	return s.medicines.Get(ctx, id)
}
