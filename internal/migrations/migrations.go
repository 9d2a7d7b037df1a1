package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the schema for the pharmacy dashboard. Dates are stored as
// RFC 3339 text; the store layer owns the conversion.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS categories (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS medicines (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            generic_name TEXT NOT NULL DEFAULT '',
            batch_number TEXT NOT NULL,
            manufacturer TEXT NOT NULL,
            category_id TEXT NOT NULL,
            price REAL NOT NULL,
            stock_quantity INTEGER NOT NULL,
            expiry_date TEXT NOT NULL,
            barcode TEXT NOT NULL DEFAULT '',
            image_ref TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            FOREIGN KEY(category_id) REFERENCES categories(id)
        );`,
		`CREATE TABLE IF NOT EXISTS refills (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_id TEXT NOT NULL,
            initial_quantity INTEGER NOT NULL,
            refill_date TEXT NOT NULL,
            end_date TEXT,
            FOREIGN KEY(medicine_id) REFERENCES medicines(id)
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            id TEXT PRIMARY KEY,
            date TEXT NOT NULL,
            total_amount REAL NOT NULL,
            cashier_id TEXT NOT NULL,
            customer_name TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            FOREIGN KEY(cashier_id) REFERENCES users(id)
        );`,
		`CREATE TABLE IF NOT EXISTS sale_items (
            id TEXT PRIMARY KEY,
            sale_id TEXT NOT NULL,
            medicine_id TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            unit_price REAL NOT NULL,
            total_price REAL NOT NULL,
            FOREIGN KEY(sale_id) REFERENCES sales(id),
            FOREIGN KEY(medicine_id) REFERENCES medicines(id)
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
