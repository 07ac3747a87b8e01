// Package services contains the protocol logic behind the HTTP handlers:
// client registration, client authentication, authorization code issuance,
// token exchange, introspection and revocation.
package services

import "time"

// nowFunc is swapped out in tests that need deterministic expiries
var nowFunc = time.Now
