package service

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/util"
)

// ParsePortableInfoboxHTML extracts structured key/value pairs from rendered
// page HTML: modern portable-infobox markup first, then the legacy
// "infoboxtable" table convention. Returns nil when neither is present.
func ParsePortableInfoboxHTML(html string) domain.InfoboxFields {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	fields := make(domain.InfoboxFields)

	doc.Find(".pi-data[data-source]").Each(func(_ int, sel *goquery.Selection) {
		source, _ := sel.Attr("data-source")
		value := selectionText(sel.Find(".pi-data-value"))
		if source != "" && value != "" {
			fields.Set(source, value)
		}
	})

	doc.Find("h2.pi-title[data-source]").Each(func(_ int, sel *goquery.Selection) {
		source, _ := sel.Attr("data-source")
		value := selectionText(sel)
		if source != "" && value != "" {
			fields.Set(source, value)
		}
	})

	if len(fields) == 0 {
		parseInfoboxTable(doc, fields)
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// parseInfoboxTable handles older wikis that render the infobox as a plain
// two-column table with class "infoboxtable" (or a generic infobox class).
func parseInfoboxTable(doc *goquery.Document, fields domain.InfoboxFields) {
	doc.Find("table.infoboxtable tr, table.infobox tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() != 2 {
			return
		}
		key := selectionText(cells.First())
		value := selectionText(cells.Last())
		key = strings.TrimSuffix(strings.TrimSpace(key), ":")
		if key != "" && value != "" {
			fields.Set(key, value)
		}
	})
}

// selectionText renders a selection to plain text, joining list items with
// commas the way the infobox displays them.
func selectionText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	items := sel.Find("li")
	if items.Length() > 1 {
		var parts []string
		items.Each(func(_ int, li *goquery.Selection) {
			if text := util.CollapseWhitespace(li.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	return util.CollapseWhitespace(sel.Text())
}

// LeadDescriptionFromHTML pulls the first prose paragraphs of the rendered
// page, skipping infobox asides and short caption-like fragments.
func LeadDescriptionFromHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var paragraphs []string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if p.ParentsFiltered("aside, table").Length() > 0 {
			return true
		}
		text := util.CollapseWhitespace(p.Text())
		if len(text) > 50 {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < 4
	})

	return strings.Join(paragraphs, "\n\n")
}

// ImagesFromHTML collects candidate image URLs from rendered HTML: image
// links, inline <img> sources, and the og:image meta tag.
func ImagesFromHTML(html string) []string {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var images []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if strings.HasPrefix(raw, "//") {
			raw = "https:" + raw
		}
		if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
			images = append(images, raw)
		}
	}

	doc.Find("a.image[href], a.mw-file-description[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && hasImageExtension(href) {
			add(href)
		}
	})
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && hasImageExtension(src) {
			add(src)
		}
	})
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok {
			add(content)
		}
	})

	return util.Dedupe(images)
}

func hasImageExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	// Query params may trail the extension on CDN URLs.
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	// Fandom CDN keeps the extension mid-path (…/image.png/revision/latest).
	for _, ext := range []string{".jpg/", ".jpeg/", ".png/", ".gif/", ".webp/"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
