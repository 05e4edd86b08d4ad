package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the MedDrop backend.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS medicines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			expiry_date TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 0),
			notes TEXT NOT NULL DEFAULT '',
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			created_by INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			requested_by INTEGER NOT NULL REFERENCES users(id),
			requested_to INTEGER NOT NULL REFERENCES users(id),
			medicine_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'accepted', 'rejected')),
			cancelled_by_user INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		// At most one pending request per (requester, medicine) pair.
		// The store checks first; a racing insert lands here.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_one_pending
			ON requests(requested_by, medicine_id) WHERE status = 'pending';`,
		`CREATE INDEX IF NOT EXISTS idx_requests_requested_to ON requests(requested_to);`,
		`CREATE INDEX IF NOT EXISTS idx_medicines_created_by ON medicines(created_by);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
