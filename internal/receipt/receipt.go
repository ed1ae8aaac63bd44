package receipt

import (
	"sort"
	"time"
)

// Item is a single line item extracted from a receipt.
type Item struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Record represents a stored receipt. ID and CreatedAt are assigned at
// creation and always present; every other field comes from the vision model
// and may be missing. Missing text fields are empty strings and a missing
// amount is 0.
type Record struct {
	ID           string    `json:"id"`
	MerchantName string    `json:"merchant_name,omitempty"`
	Date         string    `json:"date,omitempty"` // extracted transaction date, YYYY-MM-DD; may be empty or implausible
	Items        []Item    `json:"items,omitempty"`
	TotalAmount  float64   `json:"total_amount"`
	TaxID        string    `json:"tax_id,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ImageName    string    `json:"image_name,omitempty"`   // stored image file, served for display
	ContentType  string    `json:"content_type,omitempty"` // MIME type of the stored image
}

// sortByCreatedAt orders records oldest first.
func sortByCreatedAt(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
