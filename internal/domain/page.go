package domain

import "github.com/castmeta/mediawiki-scraper/internal/util"

// InfoboxSource tags which content shape the infobox fields came from, resolved
// once by the content parser so later stages never re-inspect raw markup.
type InfoboxSource string

const (
	SourceNone     InfoboxSource = "none"
	SourcePortable InfoboxSource = "portable"
	SourceWikitext InfoboxSource = "wikitext"
)

// InfoboxFields maps normalized field keys (lowercased, whitespace-collapsed)
// to raw string values. Duplicate keys within one infobox resolve
// last-definition-wins.
type InfoboxFields map[string]string

func (f InfoboxFields) Set(key, value string) {
	normalized := util.NormalizeKey(key)
	if normalized == "" || value == "" {
		return
	}
	f[normalized] = value
}

func (f InfoboxFields) Get(key string) (string, bool) {
	v, ok := f[util.NormalizeKey(key)]
	return v, ok
}

// Merge copies fields from other into f, overwriting collisions. Used to let
// portable-infobox values win over wikitext values for the same key.
func (f InfoboxFields) Merge(other InfoboxFields) {
	for k, v := range other {
		f[k] = v
	}
}

// PageContent is the normalized product of one page fetch. Read-only after the
// content parser returns it.
type PageContent struct {
	Title        string
	URL          string
	Wikitext     string
	RenderedHTML string

	// Extract is the API-provided intro snippet, when available.
	Extract string
	// FandomDescription carries the fandomdescription pageprop on Fandom wikis.
	FandomDescription string

	Categories []string
	ImageURLs  []string
	// MainImage is the page's designated lead image, when the API exposes one.
	MainImage string

	Infobox InfoboxFields
	Source  InfoboxSource
}

// HasStructuredData reports whether any infobox-like structure was found.
func (p *PageContent) HasStructuredData() bool {
	return p.Source != SourceNone && len(p.Infobox) > 0
}
