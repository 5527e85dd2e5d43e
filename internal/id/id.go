package id

import (
	"strings"
)

// MarkerPrefix tags ledger titles with the bank transaction they came from.
const MarkerPrefix = "mono-"

// Marker returns the cross-reference marker for a bank transaction ID,
// like "mono-12345". An empty ID yields an empty marker.
func Marker(externalID string) string {
	if externalID == "" {
		return ""
	}
	return MarkerPrefix + externalID
}

// Title returns the ledger title for a transaction: the description, suffixed
// with the marker when the transaction has an external ID.
// Title("Coffee", "12345") -> "Coffee mono-12345"
func Title(description, externalID string) string {
	description = strings.TrimSpace(description)
	m := Marker(externalID)
	if m == "" {
		return description
	}
	return description + " " + m
}

// ExternalIDFromTitle extracts the external ID from a title built by Title.
// Returns false if the title carries no marker.
func ExternalIDFromTitle(title string) (string, bool) {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return "", false
	}
	last := fields[len(fields)-1]
	if !strings.HasPrefix(last, MarkerPrefix) || len(last) == len(MarkerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(last, MarkerPrefix), true
}
