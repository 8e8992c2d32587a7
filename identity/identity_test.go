package identity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/parishhub/parish-client/identity"
	"github.com/parishhub/parish-client/internal/utils"
)

func TestIdentityDecodesWireFormat(t *testing.T) {
	payload := `{"id":7,"username":"maria","first_name":"Maria","last_name":"Santos","email":"maria@example.org","email_verified":true,"location":"Porto"}`

	var ident identity.Identity
	require.NoError(t, json.Unmarshal([]byte(payload), &ident))
	require.Equal(t, int64(7), ident.ID)
	require.Equal(t, "maria", ident.Username)
	require.Equal(t, "Maria Santos", ident.FullName())
	require.True(t, ident.EmailVerified)
}

func TestFullNameToleratesMissingHalves(t *testing.T) {
	require.Equal(t, "Maria", (&identity.Identity{FirstName: "Maria"}).FullName())
	require.Equal(t, "Santos", (&identity.Identity{LastName: "Santos"}).FullName())
	require.Equal(t, "", (&identity.Identity{}).FullName())
}

func TestPatchNeverCarriesEmail(t *testing.T) {
	patch := identity.Patch{
		FirstName: utils.Ptr("Maria"),
		Location:  utils.Ptr("Porto"),
	}
	encoded, err := json.Marshal(patch)
	require.NoError(t, err)

	var onWire map[string]any
	require.NoError(t, json.Unmarshal(encoded, &onWire))
	require.NotContains(t, onWire, "email")
	require.Equal(t, "Maria", onWire["first_name"])
	require.Equal(t, "Porto", onWire["location"])
}

func TestPatchApplyMergesOnlySetFields(t *testing.T) {
	base := identity.Identity{
		ID:        7,
		Username:  "maria",
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "maria@example.org",
	}
	merged := identity.Patch{LastName: utils.Ptr("Oliveira")}.Apply(base)

	require.Equal(t, "Oliveira", merged.LastName)
	require.Equal(t, "Maria", merged.FirstName)
	require.Equal(t, "maria@example.org", merged.Email)
	require.Equal(t, int64(7), merged.ID)
}

func TestPatchIsZero(t *testing.T) {
	require.True(t, identity.Patch{}.IsZero())
	require.False(t, identity.Patch{Phone: utils.Ptr("123")}.IsZero())
}

func TestTokenExpiryReadsExpClaim(t *testing.T) {
	expiry := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte("not-our-key"))
	require.NoError(t, err)

	got, err := identity.TokenExpiry(signed)
	require.NoError(t, err)
	require.True(t, got.Equal(expiry))
}

func TestTokenExpiryRejectsGarbage(t *testing.T) {
	_, err := identity.TokenExpiry("not-a-jwt")
	require.Error(t, err)
}

func TestTokenExpiryRequiresExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7"})
	signed, err := token.SignedString([]byte("not-our-key"))
	require.NoError(t, err)

	_, err = identity.TokenExpiry(signed)
	require.Error(t, err)
}
