package domain

import "time"

// StockItem is one sellable credential, scoped to a service from the catalog.
// It is consumed (deleted) by exactly one purchase.
type StockItem struct {
	ID         int64
	Service    string
	Credential string
	CreatedAt  time.Time
}
