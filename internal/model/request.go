package model

import "time"

// TransferRequest records one store asking another to ship inventory.
// It is never deleted; the ledger doubles as transfer history.
//
// Field naming follows the original wire contract, which reads backwards:
// FromStoreID is the store that raised the request and will RECEIVE the
// goods, ToStoreID is the store that holds the stock and SHIPS it. Keep
// that in mind when touching reconciliation code.
type TransferRequest struct {
	ID              string     `json:"id"`
	FromStoreID     string     `json:"fromStoreId"`
	FromStoreName   string     `json:"fromStoreName,omitempty"`
	ToStoreID       string     `json:"toStoreId"`
	ToStoreName     string     `json:"toStoreName,omitempty"`
	Item            string     `json:"item"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	RequesterName   string     `json:"requesterName,omitempty"`
	AdminName       string     `json:"adminName,omitempty"`
	NeedsInspection bool       `json:"needsInspection"`
	Note            string     `json:"note,omitempty"`
	EmailSent       bool       `json:"emailSent"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// Transfer request statuses.
const (
	StatusRequested = "requested"
	StatusApproved  = "approved"
	StatusInTransit = "in_transit"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// validTransitions maps each status to the statuses reachable from it.
// Completed and rejected are terminal.
var validTransitions = map[string][]string{
	StatusRequested: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusInTransit, StatusRejected},
	StatusInTransit: {StatusCompleted},
	StatusCompleted: {},
	StatusRejected:  {},
}

// ValidStatus reports whether s is a known transfer request status.
func ValidStatus(s string) bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransition reports whether a request may move from one status to
// another. Re-asserting the current status is allowed so that retried
// updates stay idempotent.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
