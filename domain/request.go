package domain

// Request statuses. Accepted and rejected are terminal.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Request is a fulfillment request against a medicine listing.
//
// RequestedTo is a snapshot of the medicine's owner taken at creation
// time. Medicines cannot change owners, so the snapshot never diverges.
//
// A requester-initiated cancellation is stored as status=rejected with
// CancelledByUser set, distinguishing it from an owner rejection.
type Request struct {
	ID              int64  `db:"id" json:"id"`
	RequestedBy     int64  `db:"requested_by" json:"requested_by"`
	RequestedTo     int64  `db:"requested_to" json:"requested_to"`
	MedicineID      int64  `db:"medicine_id" json:"medicine_id"`
	Quantity        int64  `db:"quantity" json:"quantity"`
	Status          string `db:"status" json:"status"`
	CancelledByUser bool   `db:"cancelled_by_user" json:"cancelled_by_user"`
	CreatedAt       string `db:"created_at" json:"created_at"`

	// Display projection, joined in by the store's list/get queries.
	MedicineName     string `db:"medicine_name" json:"medicine_name,omitempty"`
	MedicineQuantity int64  `db:"medicine_quantity" json:"medicine_quantity"`
	RequesterName    string `db:"requester_name" json:"requester_name,omitempty"`
	RequesterEmail   string `db:"requester_email" json:"requester_email,omitempty"`
	OwnerName        string `db:"owner_name" json:"owner_name,omitempty"`
	OwnerEmail       string `db:"owner_email" json:"owner_email,omitempty"`
}
