package domain

import "time"

// DepositStatus is the review state of a deposit claim. It is terminal once it
// leaves StatusPending.
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)

// Deposit is a user-submitted claim of an external mobile-money payment,
// settled by an admin decision.
type Deposit struct {
	ID           int64
	UserID       int64
	Method       string
	SenderNumber string
	Amount       int64
	TxID         string
	Status       DepositStatus
	CreatedAt    time.Time
	DecidedAt    *time.Time
}
