package gateway

import "strconv"

// API route constants
// All routes the client calls are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteToken = "/api/v1/auth/token/"

	// Profile Routes
	// The hosted API currently serves two generations of the profile
	// endpoint; which one answers depends on the deployment. Reads fall
	// back from the current route to the legacy one, updates fall back
	// from the "me" route to the id-addressed one.
	RouteProfileMe         = "/api/v1/core/api/user-profiles/me/"
	RouteProfileMeLegacy   = "/api/v1/core/api/user/profile/me/"
	RouteProfileByIDPrefix = "/api/v1/core/api/user-profiles/"
)

// ProfileByIDRoute returns the id-addressed profile route used by the
// fallback update.
func ProfileByIDRoute(id int64) string {
	return RouteProfileByIDPrefix + strconv.FormatInt(id, 10) + "/"
}
