package domain

// Medicine is a surplus listing offered by a donor. Quantity never goes
// below zero: the owner edits or restocks it directly, and the request
// workflow decrements it only through the conditional reserve step.
type Medicine struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	ExpiryDate string  `db:"expiry_date" json:"expiry_date"`
	Quantity   int64   `db:"quantity" json:"quantity"`
	Notes      string  `db:"notes" json:"notes"`
	Lat        float64 `db:"lat" json:"lat"`
	Lng        float64 `db:"lng" json:"lng"`
	CreatedBy  int64   `db:"created_by" json:"created_by"`
	CreatedAt  string  `db:"created_at" json:"created_at"`
	UpdatedAt  string  `db:"updated_at" json:"updated_at"`
}
