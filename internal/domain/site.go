package domain

import (
	"net/url"
	"strings"
)

// APIStyle identifies which MediaWiki API surface a site exposes.
type APIStyle string

const (
	APIStyleREST   APIStyle = "rest"
	APIStyleAction APIStyle = "action"
)

// SiteFamily groups wiki hosts by deployment flavor. The family drives API
// endpoint candidates and image URL resolution.
type SiteFamily string

const (
	FamilyFandom    SiteFamily = "fandom"
	FamilyWikiGG    SiteFamily = "wiki.gg"
	FamilyMiraheze  SiteFamily = "miraheze"
	FamilyWikimedia SiteFamily = "wikimedia"
	FamilyOther     SiteFamily = "other"
)

// SiteProfile describes a discovered wiki host. Immutable after creation and
// cached for the process lifetime, keyed by site root.
type SiteProfile struct {
	SiteRoot                string     `json:"siteRoot"`
	APIBaseURL              string     `json:"apiBaseUrl"`
	Style                   APIStyle   `json:"apiStyle"`
	Family                  SiteFamily `json:"family"`
	SupportsPortableInfobox bool       `json:"supportsPortableInfobox"`
}

var allowedHosts = map[string]struct{}{
	"bulbapedia.bulbagarden.net": {},
	"liquipedia.net":             {},
	"nookipedia.com":             {},
	"en.pornopedia.com":          {},
	"pidgi.net":                  {},
	"tolkiengateway.net":         {},
	"bg3.wiki":                   {},
	"fallout.wiki":               {},
	"ffxiclopedia.fandom.com":    {},
	"kidicaruswiki.org":          {},
	"wiki.leagueoflegends.com":   {},
	"fireemblemwiki.org":         {},
}

var allowedSuffixes = []string{"fandom.com", "wiki.gg", "miraheze.org", "wikipedia.org"}

// NormalizeHost lowercases a host and strips a leading "www.".
func NormalizeHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// HostAllowed reports whether a wiki host is on the accepted list, either as
// an exact entry or by family suffix.
func HostAllowed(host string) bool {
	normalized := NormalizeHost(host)
	if _, ok := allowedHosts[normalized]; ok {
		return true
	}
	for _, suffix := range allowedSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return true
		}
	}
	return false
}

// ClassifyFamily maps a normalized host onto its deployment family.
func ClassifyFamily(host string) SiteFamily {
	host = NormalizeHost(host)
	switch {
	case strings.HasSuffix(host, ".fandom.com"), host == "fandom.com":
		return FamilyFandom
	case strings.HasSuffix(host, ".wiki.gg"), host == "wiki.gg":
		return FamilyWikiGG
	case strings.HasSuffix(host, ".miraheze.org"):
		return FamilyMiraheze
	case strings.HasSuffix(host, ".wikipedia.org"):
		return FamilyWikimedia
	default:
		return FamilyOther
	}
}

// SiteRootOf derives the cache key for a page URL: scheme plus normalized host.
func SiteRootOf(pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + NormalizeHost(parsed.Host), nil
}
