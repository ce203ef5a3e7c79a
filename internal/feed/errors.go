package feed

import (
	"errors"

	"github.com/cosmicwatch/cosmic-watch/internal/provider/nasa"
)

var (
	// ErrMissingCredential means no NASA API key is configured. It is
	// returned before any network call.
	ErrMissingCredential = nasa.ErrMissingKey

	// ErrEmptyFeed means the upstream answered but no record survived
	// normalization. The cache is left untouched.
	ErrEmptyFeed = errors.New("no asteroid data received from NASA")

	// ErrNotFound means the upstream has no object with the requested id.
	ErrNotFound = errors.New("asteroid not found")

	// ErrLookupFailed hides transport detail from single-object lookups.
	ErrLookupFailed = errors.New("failed to fetch asteroid details")

	// ErrInvalidDate is returned for an explicit date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)
