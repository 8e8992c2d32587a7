package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/parishhub/parish-client/credentials"
	"github.com/parishhub/parish-client/gateway"
	"github.com/parishhub/parish-client/identity"
	"github.com/parishhub/parish-client/internal/apperrors"
)

// Fallback messages shown when the API gives nothing better.
const (
	loginFailedMsg  = "unable to sign in, please check your username and password"
	updateFailedMsg = "unable to update your profile, please try again"
)

// profileFallbackStatuses are the statuses that move a profile call to its
// alternate endpoint. 404 and 405 mean the deployment does not serve that
// route or verb; anything else is a real failure and terminates the call.
var profileFallbackStatuses = []int{http.StatusNotFound, http.StatusMethodNotAllowed}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Gateway is the slice of the request gateway the Manager needs.
type Gateway interface {
	Do(ctx context.Context, desc gateway.Descriptor) (json.RawMessage, error)
	DoChain(ctx context.Context, chain gateway.Chain) (json.RawMessage, error)
}

// Manager owns the live Session and encodes the policy of which failures
// are fatal and which are tolerated. It persists through a credentials.Store
// and talks to the API through a Gateway.
//
// Manager operations are not reentrancy-guarded: two overlapping Login
// calls race, and whichever resolves last wins in the store. That mirrors
// the event-loop runtime this client was modelled on; callers needing
// stronger guarantees must serialise their own calls.
type Manager struct {
	gw      Gateway
	store   credentials.Store
	nowTime func() time.Time // injectable for testing
	current Session
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager initialises a Manager with required dependencies.
func NewManager(gw Gateway, store credentials.Store, options ...ManagerOption) (*Manager, error) {
	if gw == nil {
		return nil, errors.New("[NewManager] gateway is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] credentials store is required")
	}
	manager := &Manager{
		gw:      gw,
		store:   store,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(manager)
	}
	return manager, nil
}

// Current returns the live session.
func (m *Manager) Current() Session {
	return m.current
}

// Restore loads the persisted session at cold start. Presence of the
// access-token slot alone decides "authenticated"; an already-expired token
// is restored anyway and only warned about, since renewing it is the next
// sign-in's problem.
func (m *Manager) Restore() (Session, error) {
	creds, err := m.store.Load()
	if err != nil {
		return m.current, errors.Wrap(err, "[Manager.Restore] store.Load")
	}
	m.current = Session{
		Identity:     creds.Identity,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	if m.current.Authenticated() {
		if expiry, err := identity.TokenExpiry(creds.AccessToken); err == nil && expiry.Before(m.nowTime()) {
			log.Warn().Time("expired_at", expiry).Msg("restored session holds an expired access token")
		}
	}
	return m.current, nil
}

// Login exchanges credentials for tokens, attempts a profile fetch, and
// persists the result as one unit.
//
// Token acquisition failure is terminal and leaves both the session and the
// store untouched. Profile-fetch failure is not: the session comes back
// authenticated with a nil identity. Exactly one persist happens per
// successful login, whatever the profile outcome.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (Session, error) {
	body, err := m.gw.Do(ctx, gateway.Descriptor{
		Method: http.MethodPost,
		Path:   gateway.RouteToken,
		Body:   tokenRequest{Username: identifier, Password: secret},
	})
	if err != nil {
		return m.current, gateway.Normalized(err, loginFailedMsg)
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return m.current, errors.Wrap(err, "[Manager.Login] decode token response")
	}
	if tokens.Access == "" {
		return m.current, errors.New("[Manager.Login] token endpoint returned no access token")
	}

	ident := m.fetchProfile(ctx, tokens.Access)

	if err := m.store.Persist(credentials.Credentials{
		Identity:     ident,
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
	}); err != nil {
		return m.current, errors.Wrap(err, "[Manager.Login] store.Persist")
	}

	m.current = Session{
		Identity:     ident,
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
	}
	return m.current, nil
}

// Logout clears the store and the live session. It is idempotent, makes no
// network call, and always succeeds: a store failure is logged, not
// returned, because an unauthenticated in-memory session must result either
// way.
func (m *Manager) Logout() Session {
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear credential store on logout")
	}
	m.current = Session{}
	return m.current
}

// UpdateProfile sends a partial profile update for the signed-in user.
//
// Without an authenticated session this fails with a ValidationError before
// any network call. The primary PUT to the "me" route falls back to a PATCH
// on the id-addressed route when the deployment answers 404 or 405 and the
// identity's id is known; any other failure propagates normalised and
// leaves the session unchanged. Tokens are never altered by this operation.
func (m *Manager) UpdateProfile(ctx context.Context, patch identity.Patch) (Session, error) {
	if !m.current.Authenticated() {
		return m.current, apperrors.ErrNotAuthenticated
	}

	headers := m.bearerHeaders()
	chain := gateway.Chain{
		Descriptors: []gateway.Descriptor{{
			Method:  http.MethodPut,
			Path:    gateway.RouteProfileMe,
			Body:    patch,
			Headers: headers,
		}},
		FallbackOn: profileFallbackStatuses,
	}
	if m.current.Identity != nil && m.current.Identity.ID != 0 {
		chain.Descriptors = append(chain.Descriptors, gateway.Descriptor{
			Method:  http.MethodPatch,
			Path:    gateway.ProfileByIDRoute(m.current.Identity.ID),
			Body:    patch,
			Headers: headers,
		})
	}

	body, err := m.gw.DoChain(ctx, chain)
	if err != nil {
		return m.current, gateway.Normalized(err, updateFailedMsg)
	}

	updated := m.mergeProfile(body, patch)

	if err := m.store.Persist(credentials.Credentials{
		Identity:     updated,
		AccessToken:  m.current.AccessToken,
		RefreshToken: m.current.RefreshToken,
	}); err != nil {
		return m.current, errors.Wrap(err, "[Manager.UpdateProfile] store.Persist")
	}

	m.current.Identity = updated
	return m.current, nil
}

// fetchProfile walks the read fallback chain. Failure here is tolerated by
// design: login succeeds with a nil identity.
func (m *Manager) fetchProfile(ctx context.Context, accessToken string) *identity.Identity {
	body, err := m.gw.DoChain(ctx, gateway.Chain{
		Descriptors: []gateway.Descriptor{
			{Method: http.MethodGet, Path: gateway.RouteProfileMe, Headers: bearer(accessToken)},
			{Method: http.MethodGet, Path: gateway.RouteProfileMeLegacy, Headers: bearer(accessToken)},
		},
		FallbackOn: profileFallbackStatuses,
	})
	if err != nil {
		log.Warn().Err(err).Msg("profile fetch failed, continuing without identity")
		return nil
	}
	var ident identity.Identity
	if err := json.Unmarshal(body, &ident); err != nil {
		log.Warn().Err(err).Msg("profile response undecodable, continuing without identity")
		return nil
	}
	return &ident
}

// mergeProfile prefers the profile echoed back by the API and falls back to
// merging the patch into the current identity when the response is empty.
func (m *Manager) mergeProfile(body json.RawMessage, patch identity.Patch) *identity.Identity {
	if len(body) > 0 {
		var updated identity.Identity
		if err := json.Unmarshal(body, &updated); err == nil {
			return &updated
		}
		log.Warn().Msg("profile update response undecodable, merging patch locally")
	}
	base := identity.Identity{}
	if m.current.Identity != nil {
		base = *m.current.Identity
	}
	merged := patch.Apply(base)
	return &merged
}

func (m *Manager) bearerHeaders() map[string]string {
	return bearer(m.current.AccessToken)
}

func bearer(accessToken string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + accessToken}
}
