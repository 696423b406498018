package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is a single recipe owned by exactly one user.
//
// Price uses decimal.Decimal rather than float64 so 5.99 stays 5.99 on its
// way through SQLite and back. UserID is set from the authenticated caller
// on create and never changes afterwards.
type Recipe struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Title       string          `db:"title"`
	TimeMinutes int             `db:"time_minutes"`
	Price       decimal.Decimal `db:"price"`
	Link        string          `db:"link"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
