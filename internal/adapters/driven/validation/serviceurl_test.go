//go:build unit

package validation

import "testing"

func TestSanitizeServiceURL(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		artifact string
		want     string
	}{
		{
			"strips ticket",
			"https://app.example.edu/page?ticket=ST-123",
			"ticket",
			"https://app.example.edu/page",
		},
		{
			"keeps other params in order",
			"https://app.example.edu/page?b=2&ticket=ST-123&a=1",
			"ticket",
			"https://app.example.edu/page?b=2&a=1",
		},
		{
			"no query untouched",
			"https://app.example.edu/page",
			"ticket",
			"https://app.example.edu/page",
		},
		{
			"custom artifact param",
			"https://app.example.edu/page?SAMLart=ST-123&x=y",
			"SAMLart",
			"https://app.example.edu/page?x=y",
		},
		{
			"preserves original escaping",
			"https://app.example.edu/page?q=a%20b&ticket=ST-1",
			"ticket",
			"https://app.example.edu/page?q=a%20b",
		},
		{
			"artifact param only by exact name",
			"https://app.example.edu/page?ticket2=keep&ticket=ST-1",
			"ticket",
			"https://app.example.edu/page?ticket2=keep",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeServiceURL(tc.url, tc.artifact); got != tc.want {
				t.Errorf("SanitizeServiceURL(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
