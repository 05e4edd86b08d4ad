package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"meddrop/m/domain"
	"meddrop/m/internal/database"
)

func seedUser(t *testing.T, db *sqlx.DB, name, email string) *domain.User {
	t.Helper()
	user, err := CreateUser(context.Background(), db, name, email, "hash")
	if err != nil {
		t.Fatalf("seeding user %s: %v", name, err)
	}
	return user
}

func seedMedicine(t *testing.T, db *sqlx.DB, ownerID, quantity int64) *domain.Medicine {
	t.Helper()
	med, err := CreateMedicine(context.Background(), db, ownerID,
		"Paracetamol", "2027-06-30", quantity, "unopened box", 46.05, 14.51)
	if err != nil {
		t.Fatalf("seeding medicine: %v", err)
	}
	return med
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return database.NewTestDB(t)
}
