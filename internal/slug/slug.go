// Package slug normalises region names and SVG shape ids so map clicks can
// be matched to region records.
package slug

import "strings"

// Make lowercases s and collapses every run of characters outside [a-z0-9]
// into a single hyphen. Leading and trailing hyphens are dropped.
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// FromShapeID normalises an SVG element id. Map exports prefix ids with
// "region-" or "region_", which is not part of the region name.
func FromShapeID(id string) string {
	s := Make(id)
	return strings.TrimPrefix(s, "region-")
}

// Match returns the index of the first candidate whose slug equals the
// shape id, or -1. The id is tried as-is first, so a region whose own slug
// starts with "region-" still matches; the prefix-stripped form is the
// fallback.
func Match(shapeID string, candidates []string) int {
	if i := indexOf(Make(shapeID), candidates); i >= 0 {
		return i
	}
	return indexOf(FromShapeID(shapeID), candidates)
}

func indexOf(want string, candidates []string) int {
	if want == "" {
		return -1
	}
	for i, c := range candidates {
		if Make(c) == want {
			return i
		}
	}
	return -1
}
