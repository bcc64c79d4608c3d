package validation

import (
	"net/url"
	"strings"
)

// SanitizeServiceURL strips any pre-existing artifact query parameter from a
// service URL before it is re-submitted to the CAS server. Leaving a stale
// ticket on the URL would either leak it or loop validation forever.
func SanitizeServiceURL(serviceURL, artifactParam string) string {
	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return serviceURL
	}

	if parsed.RawQuery == "" {
		return serviceURL
	}

	// Rebuild the query by hand instead of url.Values.Encode so untouched
	// parameters keep their original order and escaping.
	var kept []string
	for _, pair := range strings.Split(parsed.RawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			name = pair[:idx]
		}
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if name == artifactParam {
			continue
		}
		kept = append(kept, pair)
	}

	parsed.RawQuery = strings.Join(kept, "&")
	return parsed.String()
}
