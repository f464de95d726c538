package site

import "net/url"

// Site is one configured deal feed: URL, parser binding, and display and
// affiliation metadata. The ID is derived from the config filename.
type Site struct {
	ID          string      `yaml:"-"`
	Name        string      `yaml:"name"`
	URL         string      `yaml:"url"`
	Parser      string      `yaml:"parser"`
	Affiliation Affiliation `yaml:"affiliation"`
	Enabled     bool        `yaml:"enabled"`
}

// Affiliation is an optional query parameter appended to notified links.
type Affiliation struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// AffiliateLink returns the link with the site's affiliation parameter
// applied, or the link untouched when no affiliation is configured. The
// input URL is never modified.
func (s *Site) AffiliateLink(link *url.URL) *url.URL {
	if link == nil || s.Affiliation.Key == "" {
		return link
	}

	affiliated := *link
	q := affiliated.Query()
	q.Set(s.Affiliation.Key, s.Affiliation.Value)
	affiliated.RawQuery = q.Encode()
	return &affiliated
}
