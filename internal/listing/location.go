package listing

import (
	"net/url"
	"path"
	"strings"
)

// ReturnTo validates a location posted back by a form. Any local path is
// accepted, cleaned, with its query re-encoded; anything else (a scheme, a
// host, a protocol-relative or malformed path) falls back to base.
func ReturnTo(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return base
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return base
	}
	target := (&url.URL{Path: path.Clean(u.Path)}).EscapedPath()
	if u.RawQuery == "" {
		return target
	}
	return target + "?" + u.Query().Encode()
}
