package service

import (
	"regexp"
	"strings"

	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/util"
)

// Template names accepted as infobox-like, in match priority order. The last
// pattern is a loose fallback for wikis with homegrown box templates.
var infoboxNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:character\s+infobox|infobox\s+character|character)\b`),
	regexp.MustCompile(`(?i)^(?:hero\s+infobox|infobox\s+hero|hero)\b`),
	regexp.MustCompile(`(?i)^(?:infoboxtable|infobox\s+table)\b`),
	regexp.MustCompile(`(?i)^(?:infobox|person|actor|actress|performer)\b`),
	regexp.MustCompile(`(?i)(?:box|info)`),
}

var (
	galleryRE    = regexp.MustCompile(`(?si)<gallery[^>]*>.*?</gallery>`)
	refPairRE    = regexp.MustCompile(`(?si)<ref[^>]*>.*?</ref>`)
	refSingleRE  = regexp.MustCompile(`(?si)<ref[^>]*/?>`)
	refTmplRE    = regexp.MustCompile(`(?s)\{\{[Rr]ef[^}]*\}\}`)
	pipedLinkRE  = regexp.MustCompile(`(?s)\[\[(?:[^|\]]+)\|([^\]]+)\]\]`)
	plainLinkRE  = regexp.MustCompile(`(?s)\[\[([^\]]+)\]\]`)
	innerTmplRE  = regexp.MustCompile(`(?s)\{\{[^{}]*\}\}`)
	htmlTagRE    = regexp.MustCompile(`(?s)<[^>]+>`)
	quoteMarksRE = regexp.MustCompile(`'{2,}`)
	commentRE    = regexp.MustCompile(`(?s)<!--.*?-->`)
	headingRE    = regexp.MustCompile(`(?m)^=+.*?=+\s*$`)
	paramLineRE  = regexp.MustCompile(`(?m)\|[^=\n]*=\s*[^|\n]*`)
	braceNoiseRE = regexp.MustCompile(`(?m)[{}|]+`)
	fileLinkRE   = regexp.MustCompile(`(?i)\[\[(?:File|Image):([^|\]]+)(?:\|[^\]]*)?\]\]`)
	bareImageRE  = regexp.MustCompile(`(?i)https?://[^\s\]|]+\.(?:jpg|jpeg|png|gif|webp)`)
)

// ParseInfoboxFromWikitext locates the first infobox-like template invocation
// and tokenizes its |key=value parameters. Returns nil when no infobox-like
// template exists.
func ParseInfoboxFromWikitext(wikitext string) domain.InfoboxFields {
	if wikitext == "" {
		return nil
	}
	wikitext = commentRE.ReplaceAllString(wikitext, "")

	for _, namePattern := range infoboxNamePatterns {
		for _, body := range topLevelTemplates(wikitext) {
			name, params := splitTemplate(body)
			if !namePattern.MatchString(name) {
				continue
			}
			fields := tokenizeParams(params)
			if len(fields) > 0 {
				return fields
			}
		}
	}
	return nil
}

// topLevelTemplates returns the inner body of each balanced {{...}} span,
// outermost only. Unclosed templates are ignored.
func topLevelTemplates(text string) []string {
	var bodies []string
	depth := 0
	start := -1

	for i := 0; i+1 < len(text); i++ {
		switch {
		case text[i] == '{' && text[i+1] == '{':
			if depth == 0 {
				start = i + 2
			}
			depth++
			i++
		case text[i] == '}' && text[i+1] == '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					bodies = append(bodies, text[start:i])
					start = -1
				}
			}
			i++
		}
	}
	return bodies
}

// splitTemplate separates a template body into its name and parameter text.
func splitTemplate(body string) (name, params string) {
	idx := splitIndexAtDepthZero(body, '|')
	if idx < 0 {
		return strings.TrimSpace(body), ""
	}
	return strings.TrimSpace(body[:idx]), body[idx+1:]
}

// tokenizeParams splits |key=value pairs respecting {{ }} and [[ ]] nesting.
// A naive split on '|' would break values containing templates or links.
func tokenizeParams(params string) domain.InfoboxFields {
	fields := make(domain.InfoboxFields)

	for _, param := range splitAtDepthZero(params, '|') {
		eq := splitIndexAtDepthZero(param, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(param[:eq])
		value := CleanWikiMarkup(strings.TrimSpace(param[eq+1:]))
		if key == "" || value == "" {
			continue
		}
		fields.Set(key, value)
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// splitAtDepthZero splits text on sep occurrences outside any {{ }} or [[ ]]
// nesting.
func splitAtDepthZero(text string, sep byte) []string {
	var parts []string
	depthTmpl, depthLink := 0, 0
	last := 0

	for i := 0; i < len(text); i++ {
		if i+1 < len(text) {
			switch {
			case text[i] == '{' && text[i+1] == '{':
				depthTmpl++
				i++
				continue
			case text[i] == '}' && text[i+1] == '}':
				if depthTmpl > 0 {
					depthTmpl--
				}
				i++
				continue
			case text[i] == '[' && text[i+1] == '[':
				depthLink++
				i++
				continue
			case text[i] == ']' && text[i+1] == ']':
				if depthLink > 0 {
					depthLink--
				}
				i++
				continue
			}
		}
		if text[i] == sep && depthTmpl == 0 && depthLink == 0 {
			parts = append(parts, text[last:i])
			last = i + 1
		}
	}
	parts = append(parts, text[last:])
	return parts
}

func splitIndexAtDepthZero(text string, sep byte) int {
	depthTmpl, depthLink := 0, 0
	for i := 0; i < len(text); i++ {
		if i+1 < len(text) {
			switch {
			case text[i] == '{' && text[i+1] == '{':
				depthTmpl++
				i++
				continue
			case text[i] == '}' && text[i+1] == '}':
				if depthTmpl > 0 {
					depthTmpl--
				}
				i++
				continue
			case text[i] == '[' && text[i+1] == '[':
				depthLink++
				i++
				continue
			case text[i] == ']' && text[i+1] == ']':
				if depthLink > 0 {
					depthLink--
				}
				i++
				continue
			}
		}
		if text[i] == sep && depthTmpl == 0 && depthLink == 0 {
			return i
		}
	}
	return -1
}

// CleanWikiMarkup strips wiki markup from a value, preserving plain text:
// galleries, references, links, residual templates, HTML tags, quote runs.
func CleanWikiMarkup(text string) string {
	if text == "" {
		return ""
	}
	text = galleryRE.ReplaceAllString(text, "")
	text = refPairRE.ReplaceAllString(text, "")
	text = refSingleRE.ReplaceAllString(text, "")
	text = refTmplRE.ReplaceAllString(text, "")
	text = pipedLinkRE.ReplaceAllString(text, "$1")
	text = plainLinkRE.ReplaceAllString(text, "$1")
	text = stripTemplates(text)
	text = htmlTagRE.ReplaceAllString(text, "")
	text = quoteMarksRE.ReplaceAllString(text, "")
	return util.CollapseWhitespace(text)
}

// stripTemplates removes {{...}} spans innermost-first, bounded to avoid
// spinning on malformed markup.
func stripTemplates(text string) string {
	for i := 0; i < 10; i++ {
		stripped := innerTmplRE.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	return text
}

// LeadDescriptionFromWikitext extracts the leading prose block: the first
// paragraphs before any section heading, with templates and markup removed.
func LeadDescriptionFromWikitext(wikitext string) string {
	if wikitext == "" {
		return ""
	}

	text := commentRE.ReplaceAllString(wikitext, "")
	text = stripTemplates(text)
	text = paramLineRE.ReplaceAllString(text, "")
	text = headingRE.ReplaceAllString(text, "\n\n")
	text = galleryRE.ReplaceAllString(text, "")
	text = refPairRE.ReplaceAllString(text, "")
	text = refSingleRE.ReplaceAllString(text, "")
	text = pipedLinkRE.ReplaceAllString(text, "$1")
	text = plainLinkRE.ReplaceAllString(text, "$1")
	text = htmlTagRE.ReplaceAllString(text, "")
	text = quoteMarksRE.ReplaceAllString(text, "")
	text = braceNoiseRE.ReplaceAllString(text, "")

	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		para = util.CollapseWhitespace(para)
		if len(para) <= 50 {
			continue
		}
		if !strings.ContainsAny(para, ".!?") {
			continue
		}
		paragraphs = append(paragraphs, para)
	}
	return strings.Join(paragraphs, "\n\n")
}

// ImagesFromWikitext collects [[File:...]] references (resolved against the
// site) and bare image URLs.
func ImagesFromWikitext(wikitext string, profile *domain.SiteProfile) []string {
	if wikitext == "" {
		return nil
	}
	var images []string

	for _, match := range fileLinkRE.FindAllStringSubmatch(wikitext, -1) {
		if resolved := ResolveImageURL(match[1], profile); resolved != "" {
			images = append(images, resolved)
		}
	}
	images = append(images, bareImageRE.FindAllString(wikitext, -1)...)

	return util.Dedupe(images)
}
