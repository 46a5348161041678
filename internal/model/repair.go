package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepairTicket tracks one tailoring/repair job for a customer.
// Its lifecycle is independent of the transfer ledger.
type RepairTicket struct {
	ID               string          `json:"id"`
	StoreID          string          `json:"storeId"`
	CustomerName     string          `json:"customerName"`
	ProductID        string          `json:"productId"`
	RepairContent    string          `json:"repairContent"`
	Cost             decimal.Decimal `json:"cost"`
	PaymentStatus    string          `json:"paymentStatus"`
	RepairStatus     string          `json:"repairStatus"`
	Delivered        bool            `json:"delivered"`
	NotificationSent bool            `json:"notificationSent"`
	SentAt           *time.Time      `json:"sentAt,omitempty"`
	EstimatedMinutes int             `json:"estimatedMinutes"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
}

// Payment statuses. Values are the Korean labels the clients display.
const (
	PaymentUnpaid = "미불"
	PaymentPaid   = "완불"
)

// Repair statuses.
const (
	RepairPending    = "수선 전"
	RepairInProgress = "수선 중"
	RepairDone       = "수선 완료"
)
