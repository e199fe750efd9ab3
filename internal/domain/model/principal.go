package model

import "strings"

const maxPrincipalLength = 128

// Principal identifies an account acting in ledger operations.
type Principal string

// Valid reports whether p is a well formed principal identifier.
func (p Principal) Valid() bool {
	if len(p) == 0 || len(p) > maxPrincipalLength {
		return false
	}
	for _, r := range string(p) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// ParsePrincipal trims surrounding whitespace from raw.
func ParsePrincipal(raw string) Principal {
	return Principal(strings.TrimSpace(raw))
}

func (p Principal) String() string {
	return string(p)
}
