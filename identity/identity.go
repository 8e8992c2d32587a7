package identity

import (
	"time"
)

// Identity is the profile of the signed-in user as the API reports it.
// Any field may be absent: a failed profile fetch leaves the whole identity
// nil, and a partial payload leaves individual fields at their zero value.
type Identity struct {
	ID            int64     `json:"id,omitempty"`             // Unique identifier for the user
	Username      string    `json:"username,omitempty"`       // Unique username
	FirstName     string    `json:"first_name,omitempty"`     // First name of the user
	LastName      string    `json:"last_name,omitempty"`      // Last name of the user
	Email         string    `json:"email,omitempty"`          // User's email address
	Phone         string    `json:"phone,omitempty"`          // Contact phone number
	Location      string    `json:"location,omitempty"`       // Free-form location / parish name
	EmailVerified bool      `json:"email_verified,omitempty"` // Has the user verified their email address
	DateJoined    time.Time `json:"date_joined,omitempty"`    // Date and time when the user registered
}

// FullName returns "First Last", tolerating either half being empty.
func (i *Identity) FullName() string {
	switch {
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	default:
		return i.FirstName + " " + i.LastName
	}
}

// Patch carries a partial profile update. Nil fields are left untouched on
// the server. Email is deliberately absent: changing it requires the
// separate verification flow and is never sent through profile updates.
type Patch struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
}

// IsZero reports whether the patch carries no changes at all.
func (p Patch) IsZero() bool {
	return p.Username == nil && p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.Location == nil
}

// Apply merges the patch into a copy of base. Used when the API confirms an
// update without echoing the resulting profile back.
func (p Patch) Apply(base Identity) Identity {
	merged := base
	if p.Username != nil {
		merged.Username = *p.Username
	}
	if p.FirstName != nil {
		merged.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		merged.LastName = *p.LastName
	}
	if p.Phone != nil {
		merged.Phone = *p.Phone
	}
	if p.Location != nil {
		merged.Location = *p.Location
	}
	return merged
}
