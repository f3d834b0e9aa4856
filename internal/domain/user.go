package domain

import "time"

// User represents a storefront customer stored in the database.
// Balance is kept in minor units (1 tk = 100) and only ever adjusted by the
// transaction engine or an explicit admin override.
type User struct {
	TelegramID   int64
	Username     string
	Balance      int64
	Purchased    int
	LastActiveAt time.Time
	CreatedAt    time.Time
}

// ActivityStats aggregates last-activity buckets for the admin dashboard.
type ActivityStats struct {
	Total    int
	NewToday int
	Online   int // active within 5 minutes
	Active15 int
	Active60 int
}
