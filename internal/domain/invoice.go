package domain

import "time"

// Invoice status constants.
const (
	InvoiceStatusDraft  = "DRAFT"
	InvoiceStatusIssued = "ISSUED"
	InvoiceStatusPaid   = "PAID"
	InvoiceStatusVoid   = "VOID"
)

// Invoice bills a client for an outbound order.
type Invoice struct {
	ID        string     `json:"id"`
	Number    string     `json:"number"`
	OrderID   string     `json:"order_id"`
	ClientID  string     `json:"client_id"`
	Status    string     `json:"status"`
	Subtotal  int64      `json:"subtotal"`
	TaxAmount int64      `json:"tax_amount"`
	Total     int64      `json:"total"`
	Currency  string     `json:"currency"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

var invoiceTransitions = map[string][]string{
	InvoiceStatusDraft:  {InvoiceStatusIssued, InvoiceStatusVoid},
	InvoiceStatusIssued: {InvoiceStatusPaid, InvoiceStatusVoid},
	InvoiceStatusPaid:   {},
	InvoiceStatusVoid:   {},
}

// IsValidInvoiceStatus checks if a status string is valid.
func IsValidInvoiceStatus(status string) bool {
	_, ok := invoiceTransitions[status]
	return ok
}

// CanTransitionTo checks if the invoice may move to the target status.
func (inv *Invoice) CanTransitionTo(target string) bool {
	for _, s := range invoiceTransitions[inv.Status] {
		if s == target {
			return true
		}
	}
	return false
}
