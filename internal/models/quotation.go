package models

import (
	"encoding/json"
	"time"
)

// Quotation statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// MaxTotalAmount is the largest value the NUMERIC(10,2) total_amount column holds.
const MaxTotalAmount = 99999999.99

// ValidStatus reports whether s is a recognized quotation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Quotation represents a quotation issued to a customer
type Quotation struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name"`
	Items        json.RawMessage `json:"items"`
	TotalAmount  float64         `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// QuotationPatch holds the fields present in a partial update. A nil field
// is left untouched.
type QuotationPatch struct {
	CustomerName *string         `json:"customer_name"`
	Items        json.RawMessage `json:"items"`
	TotalAmount  *float64        `json:"total_amount"`
	Status       *string         `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p QuotationPatch) Empty() bool {
	return p.CustomerName == nil && !HasJSON(p.Items) && p.TotalAmount == nil && p.Status == nil
}

// HasJSON reports whether raw holds a non-null JSON value.
func HasJSON(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
