// Package pathutil collapses read API paths into route templates so metric
// labels stay bounded no matter how many keys and dates are requested.
package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

const (
	keyRE  = `[^/]+`
	dateRE = `\d{4}-\d{2}-\d{2}`
)

// static routes that would otherwise match a key pattern
var staticPaths = map[string]bool{
	"/writers/random": true,
}

// Evaluated in order, most specific first.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/horoscopes/` + dateRE + `/` + keyRE + `$`), Template: "/horoscopes/:date/:sign"},
	{Pattern: regexp.MustCompile(`^/horoscopes/` + keyRE + `$`), Template: "/horoscopes/:date"},
	{Pattern: regexp.MustCompile(`^/articles/` + keyRE + `/image$`), Template: "/articles/:key/image"},
	{Pattern: regexp.MustCompile(`^/articles/` + keyRE + `$`), Template: "/articles/:key"},
	{Pattern: regexp.MustCompile(`^/writers/` + keyRE + `$`), Template: "/writers/:key"},
}

// NormalizePath turns a request path into its route template.
//
//	NormalizePath("/articles/7f6c2a1e-4b3d-4c2a-9e1f-0d4e5f6a7b01") // "/articles/:key"
//	NormalizePath("/horoscopes/2026-10-17/leo")                    // "/horoscopes/:date/:sign"
//	NormalizePath("/writers/random")                               // "/writers/random"
//	NormalizePath("/healthz?verbose=1")                            // "/healthz"
//
// Paths that match no route are returned with query and trailing slash
// stripped. Callers that label metrics should prefer the matched mux pattern
// and fall back to this only for unmatched requests.
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if staticPaths[path] {
		return path
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
