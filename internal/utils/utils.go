package utils

import (
	"net/url"
	"slices"
	"strings"
)

// Converts a "file://" URI to a filesystem path.
func UriToPath(u string) string {
	if strings.HasPrefix(u, "file://") {
		uu, err := url.Parse(u)
		if err == nil {
			return uu.Path
		}
	}
	return u
}

// Converts a filesystem path to a "file://" URI.
func PathToURI(p string) string {
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// IsStubURI reports whether the URI names a baked-in stub parse rather than
// a file on disk.
func IsStubURI(u string) bool {
	return strings.HasPrefix(u, "stub-class://") || strings.HasPrefix(u, "stub-fn://")
}

// StubClassURI returns the synthetic URI a stub class parse is cached under.
func StubClassURI(shortName string) string {
	return "stub-class://" + shortName
}

// StubFunctionURI returns the synthetic URI a stub function file parse is
// cached under.
func StubFunctionURI(fileKey string) string {
	return "stub-fn://" + fileKey
}

// Appends a string to a slice only if it's not already present.
func AppendUnique(slice []string, v string) []string {
	if slices.Contains(slice, v) {
		return slice
	}
	return append(slice, v)
}
