package hive

import "errors"

// Hard failure classes for API access. Tool-level failures (unknown tool,
// non-2xx operation responses) are reported inside Result envelopes and never
// as Go errors; these sentinels cover the cases that must abort the caller.
var (
	// ErrAuthentication marks rejected credentials (HTTP 401/403 on login).
	ErrAuthentication = errors.New("hive: authentication failed")

	// ErrConnectivity marks transport failures: the API was unreachable or
	// timed out before producing a response.
	ErrConnectivity = errors.New("hive: api unreachable")

	// ErrProtocol marks a response the client could not interpret, such as a
	// login reply missing the token field.
	ErrProtocol = errors.New("hive: unexpected api response")
)
