package model

import "time"

// UserRole determines credit treatment. Premium accounts have unlimited
// daily generations.
type UserRole string

const (
	RoleFree    UserRole = "free"
	RolePremium UserRole = "premium"
)

// UserProfile is the account record the credit ledger keys off.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Unlimited reports whether the profile is exempt from credit accounting.
func (p *UserProfile) Unlimited() bool {
	return p != nil && p.Role == RolePremium
}
