package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"meddrop/m/domain"
)

// enrichedRequest selects a request together with the display summaries
// of the referenced medicine and both users. The medicine join is a LEFT
// JOIN because listings can be deleted after requests were made against
// them.
const enrichedRequest = `
	SELECT r.id, r.requested_by, r.requested_to, r.medicine_id, r.quantity,
	       r.status, r.cancelled_by_user, r.created_at,
	       COALESCE(m.name, '') AS medicine_name,
	       COALESCE(m.quantity, 0) AS medicine_quantity,
	       rb.name AS requester_name, rb.email AS requester_email,
	       rt.name AS owner_name, rt.email AS owner_email
	FROM requests r
	LEFT JOIN medicines m ON m.id = r.medicine_id
	JOIN users rb ON rb.id = r.requested_by
	JOIN users rt ON rt.id = r.requested_to`

// CreateRequest creates a pending fulfillment request against a medicine.
// Stock is not reserved at creation time; reservation happens only when
// the owner accepts.
func CreateRequest(ctx context.Context, db *sqlx.DB, requesterID, medicineID, quantity int64) (*domain.Request, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	med, err := GetMedicine(ctx, db, medicineID)
	if err != nil {
		return nil, err
	}
	if med.CreatedBy == requesterID {
		return nil, domain.ErrSelfRequest
	}
	if med.Quantity < quantity {
		return nil, domain.ErrInsufficientStock
	}

	var exists bool
	err = db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM requests
		 WHERE requested_by = ? AND medicine_id = ? AND status = 'pending')`,
		requesterID, medicineID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicatePending
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO requests (requested_by, requested_to, medicine_id, quantity)
		 VALUES (?, ?, ?, ?)`,
		requesterID, med.CreatedBy, medicineID, quantity)
	if err != nil {
		// The partial unique index catches a racing duplicate insert.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, domain.ErrDuplicatePending
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetRequest(ctx, db, id)
}

// GetRequest returns a request by ID, enriched with display summaries.
func GetRequest(ctx context.Context, db *sqlx.DB, id int64) (*domain.Request, error) {
	var req domain.Request
	err := db.GetContext(ctx, &req, enrichedRequest+` WHERE r.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListReceivedRequests returns requests addressed to the given user.
func ListReceivedRequests(ctx context.Context, db *sqlx.DB, userID int64) ([]domain.Request, error) {
	reqs := []domain.Request{}
	err := db.SelectContext(ctx, &reqs,
		enrichedRequest+` WHERE r.requested_to = ? ORDER BY r.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListMadeRequests returns requests created by the given user.
func ListMadeRequests(ctx context.Context, db *sqlx.DB, userID int64) ([]domain.Request, error) {
	reqs := []domain.Request{}
	err := db.SelectContext(ctx, &reqs,
		enrichedRequest+` WHERE r.requested_by = ? ORDER BY r.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// RespondToRequest lets the medicine's owner accept or reject a pending
// request. Acceptance reserves stock first, inside the same transaction
// as the status change, so a failed reservation rolls back leaving the
// request pending and the stock untouched.
func RespondToRequest(ctx context.Context, db *sqlx.DB, responderID, requestID int64, status string) (*domain.Request, error) {
	if status != domain.StatusAccepted && status != domain.StatusRejected {
		return nil, domain.ErrInvalidStatus
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var req domain.Request
	err = tx.GetContext(ctx, &req,
		`SELECT id, requested_by, requested_to, medicine_id, quantity, status, cancelled_by_user, created_at
		 FROM requests WHERE id = ?`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.RequestedTo != responderID {
		return nil, domain.ErrNotAuthorized
	}
	if req.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyProcessed
	}

	if status == domain.StatusAccepted {
		if err := Reserve(ctx, tx, req.MedicineID, req.Quantity); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE id = ? AND status = 'pending'`,
		status, requestID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrAlreadyProcessed
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing response: %w", err)
	}

	return GetRequest(ctx, db, requestID)
}

// CancelRequest lets the requester withdraw a pending request. The
// request moves to rejected with the cancelled-by-user flag set; stock is
// unaffected because nothing was reserved at creation.
func CancelRequest(ctx context.Context, db *sqlx.DB, requesterID, requestID int64) (*domain.Request, error) {
	req, err := GetRequest(ctx, db, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequestedBy != requesterID {
		return nil, domain.ErrNotAuthorized
	}

	res, err := db.ExecContext(ctx,
		`UPDATE requests SET status = 'rejected', cancelled_by_user = 1
		 WHERE id = ? AND status = 'pending'`, requestID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotPending
	}

	return GetRequest(ctx, db, requestID)
}
