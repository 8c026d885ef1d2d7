package domain

import "time"

type MovementKind string

const (
	MovementPurchase MovementKind = "purchase"
	MovementRestock  MovementKind = "restock"
)

// StockMovement is an audit record of a single quantity change.
type StockMovement struct {
	SweetID       string
	Kind          MovementKind
	Amount        int
	QuantityAfter int
	UserID        string
	At            time.Time
}
