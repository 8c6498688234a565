package domain

import "time"

// Now returns the current UTC time truncated to millisecond precision.
//
// Every write to an updated_at column must go through this function. Token
// signing snapshots updated_at as epoch milliseconds, and the schema stores
// timestamptz(3), so truncating here keeps the in-memory value, the stored
// value, and the reconstructed claim value exactly equal. Sub-millisecond
// drift would make every issued token look revoked.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
