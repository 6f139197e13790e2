package keycard

import (
	"context"
	"time"
)

// UserProfile is the persisted account record served to clients.
// Optional fields are nil until billing data arrives.
type UserProfile struct {
	UserUUID           string     `json:"user_uuid"`
	Email              string     `json:"email"`
	DodoCustomerID     *string    `json:"dodo_customer_id"`
	ActiveTier         *string    `json:"active_tier"`
	ActiveLength       *string    `json:"active_length"`
	TierExpiresAt      *time.Time `json:"tier_expires_at"`
	SubscriptionStatus *string    `json:"subscription_status"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Repository is the storage contract for user profiles.
// GetByEmail returns common.ErrorNotFound when no record exists.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)
	Create(ctx context.Context, email string) (*UserProfile, error)
}
