// Package seed supplies the startup data: the fixed user roster, the category
// lookup and a handful of sample medicines. The database is in-memory, so all
// of this resets on every run.
package seed

import (
	"context"
	"log"
	"time"

	"pharmacare/domain"
	"pharmacare/internal/store"
)

// Roster returns the static demo users. Passwords are stored and compared in
// plaintext; hardening them is out of scope and would break the known logins.
func Roster(now time.Time) []domain.User {
	return []domain.User{
		{ID: "1", Name: "John Smith", Username: "owner", Email: "owner@pharmacy.com", Role: domain.RoleOwner, Password: "password", CreatedAt: now},
		{ID: "2", Name: "Sarah Johnson", Username: "pharmacist", Email: "pharmacist@pharmacy.com", Role: domain.RolePharmacist, Password: "password", CreatedAt: now},
		{ID: "3", Name: "Mike Wilson", Username: "cashier", Email: "cashier@pharmacy.com", Role: domain.RoleCashier, Password: "password", CreatedAt: now},
	}
}

// Categories returns the static category lookup.
func Categories(now time.Time) []domain.Category {
	return []domain.Category{
		{ID: "1", Name: "Pain Relief", Description: "Analgesics and anti-inflammatory medicines", CreatedAt: now},
		{ID: "2", Name: "Antibiotics", Description: "Prescription antibacterial medicines", CreatedAt: now},
		{ID: "3", Name: "Vitamins & Supplements", Description: "Nutritional supplements", CreatedAt: now},
		{ID: "4", Name: "Cold & Flu", Description: "Cough, cold and flu remedies", CreatedAt: now},
		{ID: "5", Name: "First Aid", Description: "Wound care and first aid supplies", CreatedAt: now},
	}
}

// Medicines returns the sample inventory, with expiry dates relative to now so
// the dashboard always has valid, near-expiry and expired examples.
func Medicines(now time.Time) []domain.Medicine {
	return []domain.Medicine{
		{ID: "1", Name: "Paracetamol 500mg", GenericName: "Acetaminophen", BatchNumber: "PCM2024001", Manufacturer: "PharmaCorp", CategoryID: "1", Price: 5.00, StockQuantity: 150, ExpiryDate: now.AddDate(1, 0, 0), Barcode: "8901234567890", CreatedAt: now, UpdatedAt: now},
		{ID: "2", Name: "Amoxicillin 250mg", GenericName: "Amoxicillin", BatchNumber: "AMX2024015", Manufacturer: "MediLab", CategoryID: "2", Price: 12.50, StockQuantity: 8, ExpiryDate: now.AddDate(0, 0, 20), Barcode: "8901234567891", CreatedAt: now, UpdatedAt: now},
		{ID: "3", Name: "Vitamin C 1000mg", GenericName: "Ascorbic Acid", BatchNumber: "VTC2024032", Manufacturer: "HealthPlus", CategoryID: "3", Price: 8.75, StockQuantity: 45, ExpiryDate: now.AddDate(2, 0, 0), Barcode: "8901234567892", CreatedAt: now, UpdatedAt: now},
		{ID: "4", Name: "Cough Syrup 100ml", GenericName: "Dextromethorphan", BatchNumber: "CSY2023089", Manufacturer: "PharmaCorp", CategoryID: "4", Price: 6.25, StockQuantity: 0, ExpiryDate: now.AddDate(0, 0, -10), Barcode: "8901234567893", CreatedAt: now, UpdatedAt: now},
		{ID: "5", Name: "Bandage Roll", BatchNumber: "BND2024050", Manufacturer: "FirstCare", CategoryID: "5", Price: 3.00, StockQuantity: 75, ExpiryDate: now.AddDate(3, 0, 0), Barcode: "8901234567894", CreatedAt: now, UpdatedAt: now},
		{ID: "6", Name: "Ibuprofen 400mg", GenericName: "Ibuprofen", BatchNumber: "IBU2024007", Manufacturer: "MediLab", CategoryID: "1", Price: 7.50, StockQuantity: 5, ExpiryDate: now.AddDate(0, 6, 0), Barcode: "8901234567895", CreatedAt: now, UpdatedAt: now},
	}
}

// Run inserts the full seed set into a fresh database.
func Run(ctx context.Context, users *store.UserStore, categories *store.CategoryStore, medicines *store.MedicineStore) error {
	now := time.Now()
	for _, u := range Roster(now) {
		if err := users.Insert(ctx, u); err != nil {
			return err
		}
	}
	for _, c := range Categories(now) {
		if err := categories.Insert(ctx, c); err != nil {
			return err
		}
	}
	for _, m := range Medicines(now) {
		if err := medicines.Insert(ctx, m); err != nil {
			return err
		}
	}
	log.Printf("seeded %d users, %d categories, %d medicines", len(Roster(now)), len(Categories(now)), len(Medicines(now)))
	return nil
}
