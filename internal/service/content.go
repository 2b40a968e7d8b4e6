package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/castmeta/mediawiki-scraper/internal/constants"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/service/cache"
	"github.com/castmeta/mediawiki-scraper/internal/util"
	"github.com/castmeta/mediawiki-scraper/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const cacheKeyPage = "mediawiki:page:"

// ContentParser fetches raw page representations through a discovered API and
// normalizes them into PageContent. A page without any infobox-like structure
// is a legitimate outcome, not a failure.
type ContentParser struct {
	client            *APIClient
	store             cache.Store
	extractCategories bool
	logger            *zap.Logger
}

func NewContentParser(client *APIClient, store cache.Store, extractCategories bool, logger *zap.Logger) *ContentParser {
	return &ContentParser{
		client:            client,
		store:             store,
		extractCategories: extractCategories,
		logger:            logger,
	}
}

// Parse retrieves the page behind pageURL via the site's API and extracts the
// infobox block, description, categories, and candidate images.
func (p *ContentParser) Parse(ctx context.Context, pageURL string, profile *domain.SiteProfile) (*domain.PageContent, error) {
	title := PageTitleFromURL(pageURL)
	if title == "" {
		return nil, errors.NewValidationError("could not extract page title from URL", "url", pageURL)
	}

	cacheKey := cacheKeyPage + profile.APIBaseURL + ":" + title
	if p.store != nil {
		var cached domain.PageContent
		if found, err := p.store.Get(ctx, cacheKey, &cached); err == nil && found && cached.Title != "" {
			p.logger.Debug("Page content cache hit", zap.String("title", title))
			return &cached, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.HTTPConfig.FetchTimeout)
	defer cancel()

	var content *domain.PageContent
	var err error
	switch profile.Style {
	case domain.APIStyleREST:
		content, err = p.fetchREST(fetchCtx, title, profile)
	default:
		content, err = p.fetchAction(fetchCtx, title, profile)
	}
	if err != nil {
		return nil, err
	}
	content.URL = pageURL

	p.resolveInfobox(content, profile)
	p.collectImages(content, profile)

	p.logger.Info("Page content parsed",
		zap.String("title", content.Title),
		zap.String("infobox_source", string(content.Source)),
		zap.Int("fields", len(content.Infobox)),
		zap.Int("images", len(content.ImageURLs)),
		zap.Int("categories", len(content.Categories)),
	)

	if p.store != nil {
		if err := p.store.Set(ctx, cacheKey, content, constants.CacheTTL.PageContent); err != nil {
			p.logger.Debug("Page content cache write failed", zap.Error(err))
		}
	}

	return content, nil
}

func (p *ContentParser) fetchAction(ctx context.Context, title string, profile *domain.SiteProfile) (*domain.PageContent, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("redirects", "1")
	params.Set("prop", "info|revisions|pageimages|extracts|categories|pageprops")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")
	params.Set("piprop", "original|thumbnail")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")

	body, err := p.client.GetJSON(ctx, profile.APIBaseURL, params)
	if err != nil {
		return nil, err
	}

	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() {
		return nil, errors.NewAPIError("page not found", 404, map[string]any{"title": title})
	}

	content := &domain.PageContent{
		Title:             page.Get("title").String(),
		Wikitext:          page.Get("revisions.0.slots.main.content").String(),
		Extract:           page.Get("extract").String(),
		FandomDescription: page.Get("pageprops.fandomdescription").String(),
		MainImage:         page.Get("original.source").String(),
	}
	if content.Title == "" {
		content.Title = title
	}
	if content.MainImage == "" {
		content.MainImage = page.Get("thumbnail.source").String()
	}

	if p.extractCategories {
		page.Get("categories").ForEach(func(_, cat gjson.Result) bool {
			name := strings.TrimPrefix(cat.Get("title").String(), "Category:")
			if name = strings.TrimSpace(name); name != "" {
				content.Categories = append(content.Categories, name)
			}
			return true
		})
	}

	// Rendered intro HTML carries the portable infobox; failure here only
	// loses the portable path, the wikitext fallback still applies.
	if html, err := p.fetchParsedHTML(ctx, title, profile); err == nil {
		content.RenderedHTML = html
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	} else {
		p.logger.Debug("Rendered HTML fetch failed", zap.String("title", title), zap.Error(err))
	}

	return content, nil
}

func (p *ContentParser) fetchParsedHTML(ctx context.Context, title string, profile *domain.SiteProfile) (string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "text")
	params.Set("section", "0")
	params.Set("disabletoc", "1")

	body, err := p.client.GetJSON(ctx, profile.APIBaseURL, params)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "parse.text").String(), nil
}

func (p *ContentParser) fetchREST(ctx context.Context, title string, profile *domain.SiteProfile) (*domain.PageContent, error) {
	body, err := p.client.GetJSON(ctx, profile.APIBaseURL+"/page/"+url.PathEscape(title), nil)
	if err != nil {
		return nil, err
	}

	source := gjson.GetBytes(body, "source")
	if !source.Exists() {
		return nil, errors.NewAPIError("REST page response missing source", 200, map[string]any{"title": title})
	}

	content := &domain.PageContent{
		Title:    gjson.GetBytes(body, "title").String(),
		Wikitext: source.String(),
	}
	if content.Title == "" {
		content.Title = title
	}
	return content, nil
}

// resolveInfobox decides the content shape once: portable HTML fields win over
// wikitext fields on key collision; no fields at all is SourceNone.
func (p *ContentParser) resolveInfobox(content *domain.PageContent, profile *domain.SiteProfile) {
	wikitextFields := ParseInfoboxFromWikitext(content.Wikitext)
	portableFields := ParsePortableInfoboxHTML(content.RenderedHTML)

	switch {
	case len(portableFields) > 0:
		merged := make(domain.InfoboxFields, len(wikitextFields)+len(portableFields))
		merged.Merge(wikitextFields)
		merged.Merge(portableFields)
		content.Infobox = merged
		content.Source = domain.SourcePortable
	case len(wikitextFields) > 0:
		content.Infobox = wikitextFields
		content.Source = domain.SourceWikitext
	default:
		content.Infobox = make(domain.InfoboxFields)
		content.Source = domain.SourceNone
		if profile.SupportsPortableInfobox {
			p.logger.Debug("No infobox found on portable-capable site",
				zap.String("title", content.Title))
		}
	}
}

func (p *ContentParser) collectImages(content *domain.PageContent, profile *domain.SiteProfile) {
	var images []string
	if content.MainImage != "" {
		images = append(images, content.MainImage)
	}
	if name, ok := content.Infobox.Get("image"); ok {
		if resolved := ResolveImageURL(name, profile); resolved != "" {
			images = append(images, resolved)
		}
	}
	images = append(images, ImagesFromWikitext(content.Wikitext, profile)...)
	images = append(images, ImagesFromHTML(content.RenderedHTML)...)
	content.ImageURLs = util.Dedupe(images)
}

var titlePathPrefixes = []string{"/wiki/", "/index.php/"}

// PageTitleFromURL extracts the page title from common MediaWiki URL layouts.
func PageTitleFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	if t := parsed.Query().Get("title"); t != "" {
		return decodeTitle(t)
	}
	for _, prefix := range titlePathPrefixes {
		if idx := strings.Index(parsed.Path, prefix); idx >= 0 {
			if t := parsed.Path[idx+len(prefix):]; t != "" {
				return decodeTitle(t)
			}
		}
	}
	if t := strings.TrimPrefix(parsed.Path, "/"); t != "" {
		return decodeTitle(t)
	}
	return ""
}

func decodeTitle(raw string) string {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
}
