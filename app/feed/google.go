package feed

import (
	"net/url"
)

// BuildSearchFeedURL turns a topic search query into a Google News RSS
// search feed URL for the Belarusian locale.
func BuildSearchFeedURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "ru")
	params.Set("gl", "BY")
	params.Set("ceid", "BY:ru")

	return "https://news.google.com/rss/search?" + params.Encode()
}
