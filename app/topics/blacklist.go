package topics

import (
	"net/url"
	"strings"
)

// Blocked reports whether the link or title trips the blacklist: domain
// substring match against the link host, or keyword substring match against
// the URL path or the title.
func (b *Blacklist) Blocked(link, title string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}

	domain := strings.ToLower(parsed.Host)
	domain = strings.TrimPrefix(domain, "www.")
	path := strings.ToLower(parsed.Path)
	titleLower := strings.ToLower(title)

	for _, d := range b.Domains {
		if d != "" && strings.Contains(domain, d) {
			return true
		}
	}

	for _, k := range b.Keywords {
		if k == "" {
			continue
		}
		if strings.Contains(path, k) {
			return true
		}
		if title != "" && strings.Contains(titleLower, k) {
			return true
		}
	}

	return false
}
