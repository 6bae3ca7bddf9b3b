package httputil

import (
	"regexp"
	"strconv"
	"strings"
)

var txHashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidateTxHash checks if a string is a 0x-prefixed 32-byte transaction hash.
func ValidateTxHash(hash string) bool {
	return txHashRegex.MatchString(strings.TrimSpace(hash))
}

// ParseID parses a decimal record identifier. Signs, blanks inside the
// number and values above 2^64-1 are rejected.
func ParseID(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// MissingKeys returns the keys absent from body, in the order given.
// Presence is all that is checked; empty values count as present.
func MissingKeys(body map[string]any, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := body[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
