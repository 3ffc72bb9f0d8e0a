package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Authorization flow, session status and logout
	RouteAPIAuth = "/api/auth"

	// Downstream kintone records
	RouteAPIGetRecords = "/api/getRecords"

	// Liveness
	RouteHealthz = "/healthz"
)
