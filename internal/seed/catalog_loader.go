package seed

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacare/domain"
	"pharmacare/internal/store"
)

// LoadCatalog ingests a medicine CSV into the inventory. The expected columns
// are name, generic name, batch number, manufacturer, category id, price,
// stock quantity and expiry date (YYYY-MM-DD). Bad rows are skipped with a
// log line; a missing file is not an error.
func LoadCatalog(ctx context.Context, medicines *store.MedicineStore, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load medicine catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read catalog header: %v", err)
		return
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read catalog row: %v", err)
			continue
		}
		if len(record) < 8 {
			continue
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
		if err != nil || price < 0 {
			log.Printf("skipping catalog row %q: bad price", name)
			continue
		}
		stock, err := strconv.Atoi(strings.TrimSpace(record[6]))
		if err != nil || stock < 0 {
			log.Printf("skipping catalog row %q: bad stock quantity", name)
			continue
		}
		expiry, err := time.Parse("2006-01-02", strings.TrimSpace(record[7]))
		if err != nil {
			log.Printf("skipping catalog row %q: bad expiry date", name)
			continue
		}

		now := time.Now()
		m := domain.Medicine{
			ID:            uuid.NewString(),
			Name:          name,
			GenericName:   strings.TrimSpace(record[1]),
			BatchNumber:   strings.TrimSpace(record[2]),
			Manufacturer:  strings.TrimSpace(record[3]),
			CategoryID:    strings.TrimSpace(record[4]),
			Price:         price,
			StockQuantity: stock,
			ExpiryDate:    expiry,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := medicines.Insert(ctx, m); err != nil {
			log.Printf("unable to insert catalog medicine %s: %v", name, err)
		} else {
			rows++
		}
	}

	log.Printf("loaded medicine catalog with %d rows", rows)
}
