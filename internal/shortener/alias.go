package shortener

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/jaevor/go-nanoid"
)

// DefaultAliasLength is the length of generated aliases.
const DefaultAliasLength = 7

const aliasAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// reservedAliases collide with fixed routes.
var reservedAliases = map[Alias]struct{}{
	"docs":    {},
	"health":  {},
	"metrics": {},
	"openapi": {},
	"schemas": {},
	"shorten": {},
	"stats":   {},
}

// AliasGenerator produces candidate aliases.
type AliasGenerator func() string

// NewAliasGenerator returns a generator of uniformly random alphanumeric aliases.
func NewAliasGenerator(length int) (AliasGenerator, error) {
	if length < 1 {
		return nil, fmt.Errorf("alias generator: length %d must be positive", length)
	}

	gen, err := nanoid.CustomASCII(aliasAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("alias generator: %w", err)
	}

	return AliasGenerator(gen), nil
}

// ValidateAlias checks a caller-supplied alias.
func ValidateAlias(alias Alias) error {
	if !aliasPattern.MatchString(string(alias)) {
		return fmt.Errorf("%w: must be 1-64 characters of letters, digits, '-' or '_'", ErrInvalidAlias)
	}

	if _, ok := reservedAliases[alias]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidAlias, alias)
	}

	return nil
}

// ParseTargetURL accepts only absolute URLs with a host and returns their canonical string
// form. Hostless schemes such as mailto: are rejected since redirects point at web targets.
func ParseTargetURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute url", ErrInvalidURL, raw)
	}

	if port := u.Port(); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return "", fmt.Errorf("%w: port %q out of range", ErrInvalidURL, port)
		}
	}

	return u.String(), nil
}
