// Package analytics derives aggregate dashboard figures from the medicine and
// sale collections. Everything is recomputed on demand; nothing is cached.
package analytics

import (
	"context"
	"sort"
	"time"

	"pharmacare/domain"
	"pharmacare/internal/store"
)

// Service scans the stores for aggregate figures.
type Service struct {
	medicines *store.MedicineStore
	sales     *store.SaleStore
}

func NewService(medicines *store.MedicineStore, sales *store.SaleStore) *Service {
	return &Service{medicines: medicines, sales: sales}
}

// Stats is the dashboard summary.
type Stats struct {
	TodaySales      float64 `json:"today_sales"`
	WeeklySales     float64 `json:"weekly_sales"`
	MonthlySales    float64 `json:"monthly_sales"`
	TotalMedicines  int     `json:"total_medicines"`
	LowStockCount   int     `json:"low_stock_count"`
	NearExpiryCount int     `json:"near_expiry_count"`
	ExpiredCount    int     `json:"expired_count"`
}

// Stats computes the summary relative to now. Today's figure covers the
// current calendar day; weekly and monthly cover the trailing 7 and 30 days.
func (s *Service) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats

	medicines, err := s.medicines.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.TotalMedicines = len(medicines)
	for _, m := range medicines {
		if m.StockStatus() == domain.LowStock {
			stats.LowStockCount++
		}
		switch m.ExpiryStatus(now) {
		case domain.Expired:
			stats.ExpiredCount++
		case domain.NearExpiry:
			stats.NearExpiryCount++
		}
	}

	sales, err := s.sales.ListSales(ctx)
	if err != nil {
		return Stats{}, err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)
	monthStart := now.AddDate(0, 0, -30)
	for _, sale := range sales {
		if !sale.Date.Before(dayStart) && sale.Date.Before(dayStart.AddDate(0, 0, 1)) {
			stats.TodaySales += sale.TotalAmount
		}
		if sale.Date.After(weekStart) {
			stats.WeeklySales += sale.TotalAmount
		}
		if sale.Date.After(monthStart) {
			stats.MonthlySales += sale.TotalAmount
		}
	}

	return stats, nil
}

// TopMedicine is one entry in the top-selling ranking.
type TopMedicine struct {
	Medicine     domain.Medicine `json:"medicine"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      float64         `json:"revenue"`
}

// TopSelling ranks medicines by cumulative sold quantity, descending. Ties
// keep the medicines' insertion order; the sort is stable. A limit of zero or
// less returns the full ranking.
func (s *Service) TopSelling(ctx context.Context, limit int) ([]TopMedicine, error) {
	medicines, err := s.medicines.List(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.sales.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	soldQty := make(map[string]int, len(medicines))
	soldRevenue := make(map[string]float64, len(medicines))
	for _, item := range items {
		soldQty[item.MedicineID] += item.Quantity
		soldRevenue[item.MedicineID] += item.TotalPrice
	}

	ranking := make([]TopMedicine, 0, len(medicines))
	for _, m := range medicines {
		if soldQty[m.ID] == 0 {
			continue
		}
		ranking = append(ranking, TopMedicine{
			Medicine:     m,
			QuantitySold: soldQty[m.ID],
			Revenue:      soldRevenue[m.ID],
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].QuantitySold > ranking[j].QuantitySold
	})
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}
