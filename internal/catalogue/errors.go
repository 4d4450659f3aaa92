package catalogue

import "errors"

// Sentinel errors identifying the query-level failure kinds a caller must
// be able to distinguish without string matching.
var (
	ErrUnknownStop     = errors.New("unknown stop")
	ErrUnknownBus      = errors.New("unknown bus")
	ErrUnknownDistance = errors.New("unknown distance")
)
