package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"meddrop/m/domain"
)

// CreateMedicine inserts a new listing owned by ownerID.
func CreateMedicine(ctx context.Context, db *sqlx.DB, ownerID int64, name, expiryDate string, quantity int64, notes string, lat, lng float64) (*domain.Medicine, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO medicines (name, expiry_date, quantity, notes, lat, lng, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, expiryDate, quantity, notes, lat, lng, ownerID,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetMedicine(ctx, db, id)
}

// GetMedicine returns a medicine by ID.
func GetMedicine(ctx context.Context, db *sqlx.DB, id int64) (*domain.Medicine, error) {
	var med domain.Medicine
	err := db.GetContext(ctx, &med,
		`SELECT id, name, expiry_date, quantity, notes, lat, lng, created_by, created_at, updated_at
		 FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMedicineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &med, nil
}

// ListMedicinesByOwner returns all listings created by the given user.
func ListMedicinesByOwner(ctx context.Context, db *sqlx.DB, ownerID int64) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	err := db.SelectContext(ctx, &meds,
		`SELECT id, name, expiry_date, quantity, notes, lat, lng, created_by, created_at, updated_at
		 FROM medicines WHERE created_by = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return meds, nil
}

// ListAvailableMedicines returns in-stock listings from other users, for
// the browse/map view.
func ListAvailableMedicines(ctx context.Context, db *sqlx.DB, excludeUserID int64) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	err := db.SelectContext(ctx, &meds,
		`SELECT id, name, expiry_date, quantity, notes, lat, lng, created_by, created_at, updated_at
		 FROM medicines WHERE created_by != ? AND quantity > 0
		 ORDER BY created_at DESC, id DESC`, excludeUserID)
	if err != nil {
		return nil, err
	}
	return meds, nil
}

// MedicineUpdate carries the optional fields of a partial update.
// Nil fields are left unchanged.
type MedicineUpdate struct {
	Name       *string  `json:"name"`
	ExpiryDate *string  `json:"expiry_date"`
	Quantity   *int64   `json:"quantity"`
	Notes      *string  `json:"notes"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// UpdateMedicine applies a partial update to a listing the caller owns.
func UpdateMedicine(ctx context.Context, db *sqlx.DB, id, callerID int64, upd MedicineUpdate) (*domain.Medicine, error) {
	med, err := GetMedicine(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if med.CreatedBy != callerID {
		return nil, domain.ErrNotAuthorized
	}

	if upd.Name != nil {
		med.Name = *upd.Name
	}
	if upd.ExpiryDate != nil {
		med.ExpiryDate = *upd.ExpiryDate
	}
	if upd.Quantity != nil {
		if *upd.Quantity < 0 {
			return nil, domain.ErrInvalidQuantity
		}
		med.Quantity = *upd.Quantity
	}
	if upd.Notes != nil {
		med.Notes = *upd.Notes
	}
	if upd.Lat != nil {
		med.Lat = *upd.Lat
	}
	if upd.Lng != nil {
		med.Lng = *upd.Lng
	}

	_, err = db.ExecContext(ctx,
		`UPDATE medicines SET name = ?, expiry_date = ?, quantity = ?, notes = ?, lat = ?, lng = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		med.Name, med.ExpiryDate, med.Quantity, med.Notes, med.Lat, med.Lng, id)
	if err != nil {
		return nil, err
	}
	return GetMedicine(ctx, db, id)
}

// DeleteMedicine removes a listing the caller owns.
func DeleteMedicine(ctx context.Context, db *sqlx.DB, id, callerID int64) error {
	med, err := GetMedicine(ctx, db, id)
	if err != nil {
		return err
	}
	if med.CreatedBy != callerID {
		return domain.ErrNotAuthorized
	}
	_, err = db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	return err
}

// RestockMedicine adds quantity to a listing the caller owns.
func RestockMedicine(ctx context.Context, db *sqlx.DB, id, callerID, quantity int64) (*domain.Medicine, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	med, err := GetMedicine(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if med.CreatedBy != callerID {
		return nil, domain.ErrNotAuthorized
	}
	_, err = db.ExecContext(ctx,
		`UPDATE medicines SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		quantity, id)
	if err != nil {
		return nil, err
	}
	return GetMedicine(ctx, db, id)
}

// Reserve decrements a medicine's quantity by the requested amount, but
// only if enough stock remains. The check and the decrement happen in a
// single UPDATE, so two concurrent reservations can never both pass a
// stale stock check: whichever reaches the store second sees the already
// decremented row and fails cleanly with no mutation.
//
// The executor may be a *sqlx.DB or a *sqlx.Tx, so the request lifecycle
// can run the reservation inside its own transaction.
func Reserve(ctx context.Context, q sqlx.ExtContext, medicineID, quantity int64) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	res, err := q.ExecContext(ctx,
		`UPDATE medicines SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity >= ?`,
		quantity, medicineID, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Missing row and short stock are indistinguishable here, and the
		// caller treats both as a failed reservation.
		return domain.ErrInsufficientStock
	}
	return nil
}
