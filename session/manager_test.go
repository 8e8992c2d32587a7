package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/parishhub/parish-client/credentials/storefakes"
	"github.com/parishhub/parish-client/gateway"
	"github.com/parishhub/parish-client/identity"
	"github.com/parishhub/parish-client/internal/apperrors"
	"github.com/parishhub/parish-client/internal/utils"
	"github.com/parishhub/parish-client/session"
)

const (
	testUsername     = "maria"
	testPassword     = "secret123"
	testAccessToken  = "A1"
	testRefreshToken = "R1"
	testProfileID    = int64(7)
)

// apiFixture is a stub of the remote API plus the manager under test. Each
// endpoint's status and body are swappable per test; call counters let
// tests assert fallback policy.
type apiFixture struct {
	server  *httptest.Server
	store   *storefakes.FakeStore
	manager *session.Manager

	totalRequests       atomic.Int64
	tokenCalls          atomic.Int64
	profilePrimaryCalls atomic.Int64
	profileLegacyCalls  atomic.Int64
	putCalls            atomic.Int64
	patchCalls          atomic.Int64
	patchedID           atomic.Int64

	tokenStatus int
	tokenBody   string

	profilePrimaryStatus int
	profilePrimaryBody   string

	profileLegacyStatus int
	profileLegacyBody   string

	putStatus int
	putBody   string

	patchStatus int
	patchBody   string
}

func setupTestFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		tokenStatus:          http.StatusOK,
		tokenBody:            `{"access":"A1","refresh":"R1"}`,
		profilePrimaryStatus: http.StatusOK,
		profilePrimaryBody:   `{"id":7,"username":"maria","first_name":"Maria","last_name":"Santos","email":"maria@example.org"}`,
		profileLegacyStatus:  http.StatusOK,
		profileLegacyBody:    `{"id":7,"username":"maria","first_name":"Maria"}`,
		putStatus:            http.StatusOK,
		putBody:              `{"id":7,"username":"maria","first_name":"Maria","last_name":"Oliveira","email":"maria@example.org"}`,
		patchStatus:          http.StatusOK,
		patchBody:            `{"id":7,"username":"maria","first_name":"Maria","last_name":"Oliveira","email":"maria@example.org"}`,
	}

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.totalRequests.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	router.HandleFunc(gateway.RouteToken, func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		respond(w, f.tokenStatus, f.tokenBody)
	}).Methods(http.MethodPost)
	router.HandleFunc(gateway.RouteProfileMe, func(w http.ResponseWriter, r *http.Request) {
		f.profilePrimaryCalls.Add(1)
		respond(w, f.profilePrimaryStatus, f.profilePrimaryBody)
	}).Methods(http.MethodGet)
	router.HandleFunc(gateway.RouteProfileMeLegacy, func(w http.ResponseWriter, r *http.Request) {
		f.profileLegacyCalls.Add(1)
		respond(w, f.profileLegacyStatus, f.profileLegacyBody)
	}).Methods(http.MethodGet)
	router.HandleFunc(gateway.RouteProfileMe, func(w http.ResponseWriter, r *http.Request) {
		f.putCalls.Add(1)
		respond(w, f.putStatus, f.putBody)
	}).Methods(http.MethodPut)
	router.HandleFunc(gateway.RouteProfileByIDPrefix+"{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.patchCalls.Add(1)
		var id int64
		for _, c := range mux.Vars(r)["id"] {
			id = id*10 + int64(c-'0')
		}
		f.patchedID.Store(id)
		respond(w, f.patchStatus, f.patchBody)
	}).Methods(http.MethodPatch)

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)

	gw, err := gateway.NewClient(f.server.URL)
	require.NoError(t, err)

	f.store = storefakes.NewFakeStore()
	f.manager, err = session.NewManager(gw, f.store)
	require.NoError(t, err)

	return f
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *apiFixture) login(t *testing.T) session.Session {
	t.Helper()
	sess, err := f.manager.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	return sess
}

func TestNewManagerRequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)

	gw, err := gateway.NewClient(f.server.URL)
	require.NoError(t, err)

	_, err = session.NewManager(nil, f.store)
	require.Error(t, err)

	_, err = session.NewManager(gw, nil)
	require.Error(t, err)
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	f := setupTestFixture(t)

	sess := f.login(t)

	require.True(t, sess.Authenticated())
	require.True(t, sess.ProfileKnown())
	require.Equal(t, testAccessToken, sess.AccessToken)
	require.Equal(t, testRefreshToken, sess.RefreshToken)
	require.Equal(t, testUsername, sess.Identity.Username)
	require.Equal(t, testProfileID, sess.Identity.ID)

	require.Equal(t, 1, f.store.PersistCalls)
	creds, err := f.store.Load()
	require.NoError(t, err)
	require.Equal(t, testAccessToken, creds.AccessToken)
	require.Equal(t, testRefreshToken, creds.RefreshToken)
	require.NotNil(t, creds.Identity)
	require.Equal(t, testUsername, creds.Identity.Username)
}

func TestLoginInvalidCredentialsLeavesStoreUntouched(t *testing.T) {
	f := setupTestFixture(t)
	f.tokenStatus = http.StatusUnauthorized
	f.tokenBody = `{"detail":"No active account found with the given credentials"}`

	_, err := f.manager.Login(context.Background(), testUsername, "wrong")
	require.Error(t, err)
	require.Equal(t, "No active account found with the given credentials", err.Error())

	require.False(t, f.manager.Current().Authenticated())
	require.Equal(t, 0, f.store.PersistCalls)
	creds, loadErr := f.store.Load()
	require.NoError(t, loadErr)
	require.Empty(t, creds.AccessToken)
	require.Empty(t, creds.RefreshToken)
	require.Nil(t, creds.Identity)

	require.EqualValues(t, 0, f.profilePrimaryCalls.Load())
}

func TestLoginPrimaryProfile404FallsBackExactlyOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.profilePrimaryStatus = http.StatusNotFound
	f.profilePrimaryBody = `{"detail":"Not found."}`

	sess := f.login(t)

	require.EqualValues(t, 1, f.profilePrimaryCalls.Load())
	require.EqualValues(t, 1, f.profileLegacyCalls.Load())
	require.True(t, sess.ProfileKnown())
	require.Equal(t, testUsername, sess.Identity.Username)
}

func TestLoginBothProfileEndpointsFailingIsTolerated(t *testing.T) {
	f := setupTestFixture(t)
	f.profilePrimaryStatus = http.StatusNotFound
	f.profileLegacyStatus = http.StatusInternalServerError
	f.profileLegacyBody = `{"detail":"boom"}`

	sess := f.login(t)

	require.True(t, sess.Authenticated())
	require.Nil(t, sess.Identity)

	require.Equal(t, 1, f.store.PersistCalls)
	creds, err := f.store.Load()
	require.NoError(t, err)
	require.Nil(t, creds.Identity)
	require.Equal(t, testAccessToken, creds.AccessToken)
}

func TestLoginPrimaryProfile500NeverFallsBack(t *testing.T) {
	f := setupTestFixture(t)
	f.profilePrimaryStatus = http.StatusInternalServerError
	f.profilePrimaryBody = `{"detail":"boom"}`

	sess := f.login(t)

	require.EqualValues(t, 1, f.profilePrimaryCalls.Load())
	require.EqualValues(t, 0, f.profileLegacyCalls.Load())
	require.True(t, sess.Authenticated())
	require.Nil(t, sess.Identity)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	requestsAfterLogin := f.totalRequests.Load()

	first := f.manager.Logout()
	second := f.manager.Logout()

	require.False(t, first.Authenticated())
	require.Equal(t, first, second)

	creds, err := f.store.Load()
	require.NoError(t, err)
	require.Empty(t, creds.AccessToken)
	require.Empty(t, creds.RefreshToken)
	require.Nil(t, creds.Identity)

	// Logout never touches the network.
	require.Equal(t, requestsAfterLogin, f.totalRequests.Load())
}

func TestUpdateProfileUnauthenticatedFailsBeforeAnyRequest(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.UpdateProfile(context.Background(), identity.Patch{FirstName: utils.Ptr("Ana")})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))
	require.EqualValues(t, 0, f.totalRequests.Load())
}

func TestUpdateProfilePutSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	sess, err := f.manager.UpdateProfile(context.Background(), identity.Patch{LastName: utils.Ptr("Oliveira")})
	require.NoError(t, err)

	require.EqualValues(t, 1, f.putCalls.Load())
	require.EqualValues(t, 0, f.patchCalls.Load())
	require.Equal(t, "Oliveira", sess.Identity.LastName)

	// Tokens are never altered by a profile update.
	require.Equal(t, testAccessToken, sess.AccessToken)
	require.Equal(t, testRefreshToken, sess.RefreshToken)
	creds, loadErr := f.store.Load()
	require.NoError(t, loadErr)
	require.Equal(t, testAccessToken, creds.AccessToken)
	require.Equal(t, testRefreshToken, creds.RefreshToken)
	require.Equal(t, "Oliveira", creds.Identity.LastName)
}

func TestUpdateProfilePut405FallsBackToPatch(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.putStatus = http.StatusMethodNotAllowed
	f.putBody = `{"detail":"Method \"PUT\" not allowed."}`

	sess, err := f.manager.UpdateProfile(context.Background(), identity.Patch{LastName: utils.Ptr("Oliveira")})
	require.NoError(t, err)

	require.EqualValues(t, 1, f.putCalls.Load())
	require.EqualValues(t, 1, f.patchCalls.Load())
	require.EqualValues(t, testProfileID, f.patchedID.Load())
	require.Equal(t, "Oliveira", sess.Identity.LastName)
}

func TestUpdateProfilePut500NeverFallsBack(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.putStatus = http.StatusInternalServerError
	f.putBody = `{"detail":"server exploded"}`

	_, err := f.manager.UpdateProfile(context.Background(), identity.Patch{LastName: utils.Ptr("Oliveira")})
	require.Error(t, err)
	require.Equal(t, "server exploded", err.Error())
	require.EqualValues(t, 0, f.patchCalls.Load())

	// Session left unchanged on failure.
	require.Equal(t, "Santos", f.manager.Current().Identity.LastName)
}

func TestUpdateProfileWithoutKnownIDHasNoFallback(t *testing.T) {
	f := setupTestFixture(t)
	// Profile without an id: the fallback PATCH cannot be addressed.
	f.profilePrimaryBody = `{"username":"maria","first_name":"Maria"}`
	f.login(t)
	f.putStatus = http.StatusNotFound
	f.putBody = `{"detail":"Not found."}`

	_, err := f.manager.UpdateProfile(context.Background(), identity.Patch{LastName: utils.Ptr("Oliveira")})
	require.Error(t, err)
	require.EqualValues(t, 0, f.patchCalls.Load())
}

func TestUpdateProfileEmptyResponseMergesPatchLocally(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.putStatus = http.StatusNoContent
	f.putBody = ""

	sess, err := f.manager.UpdateProfile(context.Background(), identity.Patch{Phone: utils.Ptr("+351 900 000 000")})
	require.NoError(t, err)
	require.Equal(t, "+351 900 000 000", sess.Identity.Phone)
	require.Equal(t, testUsername, sess.Identity.Username)
}

func TestRestoreFromStore(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	// A fresh manager over the same store sees the persisted session.
	gw, err := gateway.NewClient(f.server.URL)
	require.NoError(t, err)
	restored, err := session.NewManager(gw, f.store)
	require.NoError(t, err)

	sess, err := restored.Restore()
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	require.Equal(t, testAccessToken, sess.AccessToken)
	require.Equal(t, testUsername, sess.Identity.Username)
}

// End-to-end: token ok, primary profile 404, legacy profile ok.
func TestLoginEndToEndWithProfileFallback(t *testing.T) {
	f := setupTestFixture(t)
	f.profilePrimaryStatus = http.StatusNotFound
	f.profilePrimaryBody = `{"detail":"Not found."}`
	f.profileLegacyBody = `{"username":"maria","first_name":"Maria"}`

	sess, err := f.manager.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	require.True(t, sess.Authenticated())
	require.Equal(t, "A1", sess.AccessToken)
	require.Equal(t, "R1", sess.RefreshToken)
	require.NotNil(t, sess.Identity)
	require.Equal(t, "maria", sess.Identity.Username)
	require.Equal(t, "Maria", sess.Identity.FirstName)

	creds, err := f.store.Load()
	require.NoError(t, err)
	require.Equal(t, "A1", creds.AccessToken)
	require.Equal(t, "R1", creds.RefreshToken)
	require.Equal(t, "maria", creds.Identity.Username)
	require.Equal(t, "Maria", creds.Identity.FirstName)
}
