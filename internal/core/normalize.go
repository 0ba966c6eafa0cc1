package core

import "strings"

// NormalizeKey returns the comparison key used for name and SKU uniqueness.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PathSegment turns a normalized key into the URL segment used for routing.
// It must stay a pure function of the stored key so issued links keep working.
//
// Spaces and underscores both encode to "_", so "hand tools" and "hand_tools"
// share a segment. Workflows reject a key whose segment is already taken.
func PathSegment(key string) string {
	return strings.ReplaceAll(key, " ", "_")
}

// SegmentKey canonicalizes a segment taken from a request URL so it can be
// compared with PathSegment of a stored key.
func SegmentKey(segment string) string {
	return PathSegment(NormalizeKey(segment))
}
