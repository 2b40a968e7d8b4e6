package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/castmeta/mediawiki-scraper/internal/constants"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/util"
)

// ImageExtractor ranks candidate images by filename quality and orders the
// gallery with the best candidate first.
type ImageExtractor struct {
	client      *APIClient
	probeImages bool
	logger      *zap.Logger
}

func NewImageExtractor(client *APIClient, probeImages bool, logger *zap.Logger) *ImageExtractor {
	return &ImageExtractor{
		client:      client,
		probeImages: probeImages,
		logger:      logger.Named("images"),
	}
}

// skipMarkers identify UI chrome and maintenance images that are never
// portraits.
var skipMarkers = []string{
	"thumb", "icon", "logo", "banner", "button", "wiki", "disambiguation", "stub",
	"favicon", "sprite", "placeholder", "site-", "edit",
}

// priorityMarkers identify likely high-quality subject images.
var priorityMarkers = []string{
	"full", "original", "large", "hires", "hq", "portrait", "character", "profile",
	"infobox", "main",
}

// lowMarkers identify small or derived variants.
var lowMarkers = []string{"small", "tiny", "50px", "100px", "mini", "preview"}

type imageTier int

const (
	tierPriority imageTier = iota
	tierNormal
	tierLow
)

type rankedImage struct {
	url   string
	tier  imageTier
	named bool
	pos   int
}

// SelectImages filters and orders candidate URLs. The record's primary image
// is first, the gallery is capped, and order is deterministic: tier, then
// name-match strength against the performer name, then input position.
func (e *ImageExtractor) SelectImages(ctx context.Context, candidates []string, performerName string) []string {
	nameKey := imageNameKey(performerName)
	var kept []rankedImage
	for i, raw := range candidates {
		candidate := strings.TrimSpace(raw)
		if candidate == "" || !hasImageExtension(candidate) {
			continue
		}
		// Markers are judged against the file name only so host names like
		// static.wikia.nocookie.net never trip the skip list.
		fileName := imageFileName(candidate)
		if containsAnyMarker(fileName, skipMarkers) {
			continue
		}
		r := rankedImage{url: candidate, tier: tierNormal, pos: i}
		if containsAnyMarker(fileName, priorityMarkers) {
			r.tier = tierPriority
		} else if containsAnyMarker(fileName, lowMarkers) {
			r.tier = tierLow
		}
		if nameKey != "" && strings.Contains(imageNameKey(fileName), nameKey) {
			r.named = true
		}
		kept = append(kept, r)
	}

	// Stable selection sort keeps input order inside equal ranks.
	ordered := make([]string, 0, len(kept))
	for len(kept) > 0 {
		best := 0
		for i := 1; i < len(kept); i++ {
			if rankLess(kept[i], kept[best]) {
				best = i
			}
		}
		ordered = append(ordered, kept[best].url)
		kept = append(kept[:best], kept[best+1:]...)
	}
	ordered = util.Dedupe(ordered)
	ordered = ordered[:util.Min(len(ordered), constants.ImageConfig.MaxGalleryImages)]
	if e.probeImages {
		ordered = e.probeReachable(ctx, ordered)
	}
	return ordered
}

func rankLess(a, b rankedImage) bool {
	if a.tier != b.tier {
		return a.tier < b.tier
	}
	if a.named != b.named {
		return a.named
	}
	return a.pos < b.pos
}

// probeReachable drops candidates whose URLs fail a HEAD check. Probes run
// concurrently but the surviving list keeps the ranked order.
func (e *ImageExtractor) probeReachable(ctx context.Context, urls []string) []string {
	reachable := make([]bool, len(urls))

	p := pool.New().WithMaxGoroutines(constants.ImageConfig.ProbeConcurrency)
	for i, imageURL := range urls {
		p.Go(func() {
			probeCtx, cancel := context.WithTimeout(ctx, constants.HTTPConfig.ImageTimeout)
			defer cancel()
			reachable[i] = e.client.Head(probeCtx, imageURL)
		})
	}
	p.Wait()

	var kept []string
	for i, imageURL := range urls {
		if reachable[i] {
			kept = append(kept, imageURL)
		} else {
			e.logger.Debug("Dropping unreachable image", zap.String("url", imageURL))
		}
	}
	return kept
}

func containsAnyMarker(lower string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// imageFileName extracts the path segment that carries the image extension.
// Fandom CDN URLs keep the file name mid-path (…/Tifa.png/revision/latest).
func imageFileName(rawURL string) string {
	lower := strings.ToLower(rawURL)
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	segments := strings.Split(lower, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if hasImageExtension(segments[i]) {
			return segments[i]
		}
	}
	return segments[len(segments)-1]
}

// imageNameKey reduces a name or URL to lowercase letters and digits so
// "Tifa Lockhart" matches "Tifa_Lockhart_portrait.png".
func imageNameKey(s string) string {
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveImageURL turns a bare file name from infobox or wikitext markup into
// a fetchable URL. Already-absolute URLs pass through. Wikimedia projects
// resolve through Commons, everything else through the site's own
// Special:FilePath redirect.
func ResolveImageURL(filename string, profile *domain.SiteProfile) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	if strings.HasPrefix(name, "//") {
		return "https:" + name
	}

	name = strings.TrimPrefix(name, "File:")
	name = strings.TrimPrefix(name, "Image:")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || !hasImageExtension(name) {
		return ""
	}

	if profile != nil && profile.Family == domain.FamilyWikimedia {
		return "https://commons.wikimedia.org/wiki/Special:FilePath/" + url.PathEscape(name)
	}
	root := ""
	if profile != nil {
		root = profile.SiteRoot
	}
	if root == "" {
		return ""
	}
	return fmt.Sprintf("%s/wiki/Special:FilePath/%s", strings.TrimRight(root, "/"), url.PathEscape(name))
}
