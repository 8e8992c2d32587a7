package session

import (
	"github.com/parishhub/parish-client/identity"
)

// Session is the client-side authentication state: who is signed in and
// the tokens proving it. At most one Session is live; it is owned by the
// Manager and only ever replaced wholesale, never field-poked from outside.
type Session struct {
	Identity     *identity.Identity // nil when the profile fetch failed or nobody is signed in
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether the session holds an access token. A nil
// identity does not make the session unauthenticated: the profile fetch is
// allowed to fail while the tokens stand.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// ProfileKnown reports whether the authenticated session also carries a
// resolved identity.
func (s Session) ProfileKnown() bool {
	return s.Authenticated() && s.Identity != nil
}
