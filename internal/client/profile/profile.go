// Package profile fetches and provisions billing/profile records from the
// keycard backend and enriches them with tier information.
package profile

import "time"

// Profile is the billing/profile record keyed by email. Optional fields are
// pointers; Normalize guarantees the struct itself is fully populated with
// explicit nils for absent values.
type Profile struct {
	UserUUID           string     `json:"user_uuid"`
	Email              string     `json:"email"`
	DodoCustomerID     *string    `json:"dodo_customer_id"`
	ActiveTier         *string    `json:"active_tier"`
	ActiveLength       *string    `json:"active_length"`
	TierExpiresAt      *time.Time `json:"tier_expires_at"`
	SubscriptionStatus *string    `json:"subscription_status"`
	CreatedAt          *time.Time `json:"created_at"`
}

// Normalize returns a copy of p with every optional field populated
// explicitly: empty strings become nil, everything else is carried over
// verbatim. All optional-field defaulting lives here and nowhere else.
func Normalize(p *Profile) *Profile {
	if p == nil {
		return nil
	}

	out := &Profile{
		UserUUID:      p.UserUUID,
		Email:         p.Email,
		TierExpiresAt: p.TierExpiresAt,
		CreatedAt:     p.CreatedAt,
	}
	out.DodoCustomerID = nonEmpty(p.DodoCustomerID)
	out.ActiveTier = nonEmpty(p.ActiveTier)
	out.ActiveLength = nonEmpty(p.ActiveLength)
	out.SubscriptionStatus = nonEmpty(p.SubscriptionStatus)
	return out
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
