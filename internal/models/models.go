package models

import "time"

// Account represents a user account.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction represents one recorded income or expense. A nil Category
// means the transaction is uncategorized.
type Transaction struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    *string `json:"category"`
	AccountID   int64   `json:"-"`
}

// Budget is a spending ceiling for one category of one account.
type Budget struct {
	ID        int64   `json:"id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	AccountID int64   `json:"-"`
}

// CategoryTotal is the summed amount of one category group.
type CategoryTotal struct {
	Category *string
	Total    float64
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	Token        string
	AccountID    int64
	LastActivity time.Time
	ExpiresAt    time.Time
}
