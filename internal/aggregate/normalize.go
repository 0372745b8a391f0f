package aggregate

import (
	"net/url"
	"path"
	"strings"
)

// trackingParams are query parameters that never change which resource a
// URL names. They are stripped before URLs are compared for identity.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"msclkid": true,
	"ref":     true,
	"ref_src": true,
	"feature": true,
	"igshid":  true,
	"spm":     true,
	"si":      true,
}

// NormalizeURL canonicalizes a candidate URL so equal resources compare
// equal: lowercased scheme and host, default ports stripped, tracking
// query parameters removed, dot path segments resolved, fragment
// dropped. Returns false for unparsable or non-absolute input.
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Host = stripDefaultPort(u.Scheme, u.Host)

	if u.Path != "" {
		trailing := strings.HasSuffix(u.Path, "/") && u.Path != "/"
		u.Path = path.Clean(u.Path)
		if u.Path == "." {
			u.Path = "/"
		}
		if trailing {
			u.Path += "/"
		}
	}

	u.RawQuery = filterQuery(u.RawQuery)
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), true
}

func stripDefaultPort(scheme, host string) string {
	switch scheme {
	case "http":
		return strings.TrimSuffix(host, ":80")
	case "https":
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// filterQuery removes tracking parameters while preserving the order of
// everything else.
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		key = strings.ToLower(key)
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
