package news

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const fingerprintTitleLimit = 100

// NormalizeTitle canonicalizes a title for comparison: NFC form, lowercase,
// digits and punctuation stripped, whitespace collapsed to single spaces.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	s := norm.NFC.String(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			// dropped
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// punctuation dropped
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Fingerprint derives the exact-dedup key for an article: sha1 of the
// lowercased link host joined with the normalized title truncated to 100
// runes. Near-identical titles from the same host collide on purpose.
func Fingerprint(title, link string) string {
	host := ""
	if u, err := url.Parse(link); err == nil {
		host = strings.ToLower(u.Host)
	}

	normalized := NormalizeTitle(title)
	if runes := []rune(normalized); len(runes) > fingerprintTitleLimit {
		normalized = string(runes[:fingerprintTitleLimit])
	}

	sum := sha1.Sum([]byte(host + "|" + normalized))
	return hex.EncodeToString(sum[:])
}

// CleanLink strips the query string and fragment, leaving the stable prefix
// used for exact-link duplicate matching.
func CleanLink(link string) string {
	if i := strings.Index(link, "?"); i >= 0 {
		link = link[:i]
	}
	if i := strings.Index(link, "#"); i >= 0 {
		link = link[:i]
	}
	return link
}

// Host returns the lowercased hostname of a link, used as the article's
// resolved source.
func Host(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
