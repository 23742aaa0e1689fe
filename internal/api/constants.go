package api

// Request limits.
const (
	// DefaultRequestsPerSecond is generous for a handful of operator tablets
	// and still stops a stuck client from hammering the print endpoint.
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 40

	// MaxRecentRecords caps GET /api/v1/records.
	MaxRecentRecords = 500
)
