package models

import "time"

// CreditTxKind is the business reason for a balance change
type CreditTxKind string

const (
	CreditDebit  CreditTxKind = "debit"
	CreditRefund CreditTxKind = "refund"
	CreditGrant  CreditTxKind = "grant"
)

// CreditTransaction is an immutable ledger row recorded with every balance change.
// Amount is always positive; Kind carries the sign.
type CreditTransaction struct {
	ID           string       `json:"id" db:"id"`
	UserID       string       `json:"user_id" db:"user_id"`
	Kind         CreditTxKind `json:"kind" db:"kind"`
	Amount       int          `json:"amount" db:"amount"`
	BalanceAfter int          `json:"balance_after" db:"balance_after"`
	Reference    string       `json:"reference,omitempty" db:"reference"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// Plan is a purchasable credit bundle
type Plan struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Credits int     `json:"credits" yaml:"credits"`
	Amount  float64 `json:"amount" yaml:"amount"`
}

// Purchase records a user's intent to buy a plan.
// Credits are granted once, when the payment collaborator confirms it.
type Purchase struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	PlanID    string     `json:"plan_id" db:"plan_id"`
	Amount    float64    `json:"amount" db:"amount"`
	Credits   int        `json:"credits" db:"credits"`
	IsPaid    bool       `json:"is_paid" db:"is_paid"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty" db:"paid_at"`
}
