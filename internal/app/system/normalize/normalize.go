// Package normalize canonicalises user-supplied strings before they are
// compared or stored.
package normalize

import "strings"

// Email trims and lowercases an address.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Status trims and lowercases an account status.
func Status(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Role trims and lowercases a role.
func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// QueryParam trims a query string value and keeps its case.
func QueryParam(s string) string { return strings.TrimSpace(s) }

// ClubID trims a club filter value. "all" (any case) means no filter and
// becomes "".
func ClubID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
