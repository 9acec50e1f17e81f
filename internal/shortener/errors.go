package shortener

import "errors"

var (
	// ErrNotFound is returned when no link exists for an alias.
	ErrNotFound = errors.New("link not found")
	// ErrInvalidURL is returned when a target URL is not a well-formed absolute URL.
	ErrInvalidURL = errors.New("invalid target url")
	// ErrInvalidAlias is returned when a requested alias has a disallowed shape.
	ErrInvalidAlias = errors.New("invalid alias")
	// ErrConflict is returned when a registration lost a race and no winner could be read back.
	ErrConflict = errors.New("alias conflict")
	// ErrStoreUnavailable wraps transient link store failures.
	ErrStoreUnavailable = errors.New("link store unavailable")
	// ErrCacheUnavailable wraps transient resolution cache failures.
	ErrCacheUnavailable = errors.New("resolution cache unavailable")
	// ErrCacheMiss is returned by a Cache when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
)

// IsBadRequest reports whether err was caused by caller input.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrInvalidAlias)
}
