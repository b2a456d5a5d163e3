package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single categorized money movement owned by a user.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a server-side session record.
type Session struct {
	Token        string    `json:"token"`
	UserID       int64     `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

// CategoryTotal is the sum of a user's transaction amounts for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Summary bundles everything the dashboard shows for one user.
type Summary struct {
	Transactions []Transaction   `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
	Categories   []CategoryTotal `json:"categories"`
}

// Labels returns the category names in the same order as Amounts.
func (s Summary) Labels() []string {
	labels := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		labels = append(labels, c.Category)
	}
	return labels
}

// Amounts returns the category totals in the same order as Labels.
func (s Summary) Amounts() []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(s.Categories))
	for _, c := range s.Categories {
		amounts = append(amounts, c.Total)
	}
	return amounts
}
