package server

// Route path constants
const (
	RouteIndex    = "/"
	RouteLogin    = "/login"
	RouteLogout   = "/logout"
	RouteCallback = "/auth/callback"

	// RouteSession reports the current login and refreshes its access
	// token when it is about to expire.
	RouteSession = "/api/session"
)
