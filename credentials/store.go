package credentials

import (
	"github.com/parishhub/parish-client/identity"
)

// Credentials holds the three persisted slots. An empty token string means
// the slot is absent; a nil identity means no profile is stored. Presence
// of the access token is the sole predicate for "authenticated" at cold
// start.
type Credentials struct {
	Identity     *identity.Identity `json:"identity,omitempty"`
	AccessToken  string             `json:"access_token,omitempty"`
	RefreshToken string             `json:"refresh_token,omitempty"`
}

// Store is durable, synchronous persistence of the three credential slots.
// Implementations must be all-or-nothing: a reader never observes two slots
// updated and one stale. No implementation performs network access.
type Store interface {
	// Load reads the three slots. Absent slots come back as zero values;
	// a missing backing medium is not an error.
	Load() (Credentials, error)

	// Persist overwrites all three slots as one unit. Zero values clear
	// the corresponding slot in storage, not merely in memory.
	Persist(creds Credentials) error

	// Clear empties all three slots. Equivalent to persisting the zero
	// Credentials.
	Clear() error
}
