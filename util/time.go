package util

import (
	"strconv"
	"strings"
)

// ParseTimeTag converts a "H:M:S", "M:S" or "S" time tag into seconds.
// Components that fail to parse as numbers are dropped before combining,
// which keeps user-entered tags forgiving rather than fatal. An empty tag
// or an unrecognised shape yields 0.
func ParseTimeTag(tag string) float64 {
	if tag == "" {
		return 0
	}
	var parts []float64
	for _, p := range strings.Split(tag, ":") {
		if v, err := strconv.ParseFloat(p, 64); err == nil {
			parts = append(parts, v)
		}
	}
	switch len(parts) {
	case 3:
		return parts[0]*3600 + parts[1]*60 + parts[2]
	case 2:
		return parts[0]*60 + parts[1]
	case 1:
		return parts[0]
	default:
		return 0
	}
}
