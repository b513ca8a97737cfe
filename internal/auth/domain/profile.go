package domain

import "time"

// Profile is the personal record owned by an account.
type Profile struct {
	ID        string
	AccountID string
	FullName  string
	Phone     string
	Address   string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
