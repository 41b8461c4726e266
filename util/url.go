package util

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeFilename strips characters that are invalid in filenames on at
// least one supported platform.
func SanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "")
}

// ResolveURL rewrites a possibly-relative playlist reference as a sibling
// of base. Absolute http(s) references pass through unchanged. Any query
// string on base is ignored when locating the directory part. If base has
// no path separator at all the reference is returned as-is; callers must
// validate the result.
func ResolveURL(base, relative string) string {
	if strings.HasPrefix(relative, "http://") || strings.HasPrefix(relative, "https://") {
		return relative
	}
	basePath := base
	if q := strings.Index(base, "?"); q >= 0 {
		basePath = base[:q]
	}
	pos := strings.LastIndex(basePath, "/")
	if pos < 0 {
		return relative
	}
	return base[:pos] + "/" + relative
}
