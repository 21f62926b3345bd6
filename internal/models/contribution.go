package models

import "time"

// Mobile money providers.
const (
	ProviderMTN    = "mtn"
	ProviderAirtel = "airtel"
)

// Contribution statuses. Settlement is driven by an external process; this
// service only records pending contributions.
const (
	ContributionPending   = "pending"
	ContributionCompleted = "completed"
	ContributionFailed    = "failed"
)

// Contribution is a user's claimed mobile-money payment toward a group's
// savings pool.
type Contribution struct {
	ID            string     `json:"id" db:"id"`
	GroupID       string     `json:"groupId" db:"group_id"`
	UserID        string     `json:"userId" db:"user_id"`
	Amount        int64      `json:"amount" db:"amount"`
	Provider      string     `json:"provider" db:"provider"`
	PhoneNumber   string     `json:"phoneNumber" db:"phone_number"`
	TransactionID string     `json:"transactionId" db:"transaction_id"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	CompletedAt   *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

// ValidProvider reports whether p is a supported mobile money provider.
func ValidProvider(p string) bool {
	return p == ProviderMTN || p == ProviderAirtel
}
