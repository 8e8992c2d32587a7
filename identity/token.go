package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenExpiry reads the exp claim from an access token without verifying
// its signature. The client has no signing key; expiry is used only to
// warn about stale sessions restored from storage, never to gate requests.
func TokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, errors.Wrap(err, "[TokenExpiry] parse token")
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("[TokenExpiry] token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
