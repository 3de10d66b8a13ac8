// Package util holds small helpers shared across packages.
package util

import "strings"

// NormalizePhoneNumber strips everything but ASCII digits from a messaging
// address, so "62812-3456@c.us" and "+62 812 3456" map to the same key.
func NormalizePhoneNumber(number string) string {
	var sb strings.Builder
	sb.Grow(len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
