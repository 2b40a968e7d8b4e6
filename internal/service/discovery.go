package service

import (
	"context"
	stderrors "errors"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/castmeta/mediawiki-scraper/internal/constants"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/service/cache"
	"github.com/castmeta/mediawiki-scraper/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const cacheKeySiteProfile = "mediawiki:profile:"

// DiscoveryService finds the MediaWiki API endpoint for a page URL and builds
// a SiteProfile. Profiles are cached per site root for the process lifetime,
// with an optional Redis tier in front of repeat processes.
type DiscoveryService struct {
	client *APIClient
	store  cache.Store
	logger *zap.Logger

	mu       sync.RWMutex
	profiles map[string]*domain.SiteProfile
}

func NewDiscoveryService(client *APIClient, store cache.Store, logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		client:   client,
		store:    store,
		logger:   logger,
		profiles: make(map[string]*domain.SiteProfile),
	}
}

type apiCandidate struct {
	endpoint string
	style    domain.APIStyle
}

var wikiSubdomainRE = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Discover resolves a SiteProfile for the page URL, probing a small ordered
// list of conventional API endpoints. The first endpoint answering in the
// expected shape wins.
func (s *DiscoveryService) Discover(ctx context.Context, pageURL string) (*domain.SiteProfile, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil, errors.NewValidationError("invalid page URL", "url", pageURL)
	}

	host := domain.NormalizeHost(parsed.Host)
	if !domain.HostAllowed(host) {
		s.logger.Warn("Host not allowed", zap.String("host", host))
		return nil, errors.NewUnsupportedSiteError(host)
	}

	siteRoot, err := domain.SiteRootOf(pageURL)
	if err != nil {
		return nil, errors.NewValidationError("invalid page URL", "url", pageURL)
	}

	if profile := s.cachedProfile(ctx, siteRoot); profile != nil {
		s.logger.Debug("Site profile cache hit", zap.String("site_root", siteRoot))
		return profile, nil
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	family := domain.ClassifyFamily(host)
	candidates := apiCandidates(scheme, host, parsed.Path, family)

	title := PageTitleFromURL(pageURL)
	transportFailures := 0

	for _, candidate := range candidates {
		profile, probeErr := s.probe(ctx, candidate, siteRoot, family, title)
		if probeErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTransportError(probeErr) {
				transportFailures++
			}
			s.logger.Debug("API candidate rejected",
				zap.String("endpoint", candidate.endpoint),
				zap.Error(probeErr),
			)
			continue
		}

		s.storeProfile(ctx, siteRoot, profile)
		s.logger.Info("API endpoint discovered",
			zap.String("endpoint", profile.APIBaseURL),
			zap.String("style", string(profile.Style)),
			zap.String("family", string(profile.Family)),
			zap.Bool("portable_infobox", profile.SupportsPortableInfobox),
		)
		return profile, nil
	}

	if transportFailures == len(candidates) && len(candidates) > 0 {
		return nil, errors.NewSiteUnreachableError(host, nil)
	}
	return nil, errors.NewUnsupportedSiteError(host)
}

// apiCandidates generates the ordered probe list for a host. Known families
// get their conventional endpoints; generic installs try the REST surface
// first, then the legacy action API paths.
func apiCandidates(scheme, host, path string, family domain.SiteFamily) []apiCandidate {
	root := scheme + "://" + host
	var candidates []apiCandidate

	action := func(endpoint string) {
		candidates = append(candidates, apiCandidate{endpoint: endpoint, style: domain.APIStyleAction})
	}

	switch {
	case host == "fandom.com" || host == "www.fandom.com":
		// fandom.com/wiki/<w>/... serves the wiki from <w>.fandom.com
		if sub := wikiPathSubdomain(path); sub != "" {
			action(scheme + "://" + sub + ".fandom.com/api.php")
		}
		action(root + "/api.php")
	case host == "wiki.gg" || host == "www.wiki.gg":
		if sub := wikiPathSubdomain(path); sub != "" {
			action(scheme + "://" + sub + ".wiki.gg/api.php")
		}
		action(root + "/api.php")
	case host == "liquipedia.net":
		if seg := firstPathSegment(path); seg != "" {
			action(root + "/" + seg + "/api.php")
		}
		action(root + "/api.php")
	case family == domain.FamilyWikimedia || host == "bulbapedia.bulbagarden.net":
		action(root + "/w/api.php")
		action(root + "/api.php")
	case family == domain.FamilyFandom, family == domain.FamilyWikiGG, family == domain.FamilyMiraheze:
		action(root + "/api.php")
		action(root + "/w/api.php")
	default:
		candidates = append(candidates, apiCandidate{endpoint: root + "/rest.php/v1", style: domain.APIStyleREST})
		action(root + "/api.php")
		action(root + "/w/api.php")
	}

	return candidates
}

func wikiPathSubdomain(path string) string {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segs) >= 2 && strings.EqualFold(segs[0], "wiki") {
		return wikiSubdomainRE.ReplaceAllString(segs[1], "")
	}
	return ""
}

func firstPathSegment(path string) string {
	segs := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
	if len(segs) > 0 {
		return segs[0]
	}
	return ""
}

// probe validates one candidate endpoint and assembles the SiteProfile. Each
// probe gets its own deadline so one dead endpoint cannot eat the whole
// request budget.
func (s *DiscoveryService) probe(ctx context.Context, candidate apiCandidate, siteRoot string, family domain.SiteFamily, title string) (*domain.SiteProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.HTTPConfig.DiscoveryTimeout)
	defer cancel()

	switch candidate.style {
	case domain.APIStyleREST:
		return s.probeREST(ctx, candidate.endpoint, siteRoot, family, title)
	default:
		return s.probeAction(ctx, candidate.endpoint, siteRoot, family)
	}
}

func (s *DiscoveryService) probeAction(ctx context.Context, endpoint, siteRoot string, family domain.SiteFamily) (*domain.SiteProfile, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "siteinfo")
	params.Set("siprop", "general|extensions")
	params.Set("format", "json")

	body, err := s.client.GetJSON(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	if !gjson.GetBytes(body, "query.general").Exists() {
		return nil, errors.NewAPIError("siteinfo response missing query.general", 200, map[string]any{
			"endpoint": endpoint,
		})
	}

	portable := family == domain.FamilyFandom
	gjson.GetBytes(body, "query.extensions").ForEach(func(_, ext gjson.Result) bool {
		if strings.EqualFold(ext.Get("name").String(), "Portable Infobox") {
			portable = true
			return false
		}
		return true
	})

	return &domain.SiteProfile{
		SiteRoot:                siteRoot,
		APIBaseURL:              endpoint,
		Style:                   domain.APIStyleAction,
		Family:                  family,
		SupportsPortableInfobox: portable,
	}, nil
}

func (s *DiscoveryService) probeREST(ctx context.Context, endpoint, siteRoot string, family domain.SiteFamily, title string) (*domain.SiteProfile, error) {
	if title == "" {
		return nil, errors.NewAPIError("no page title for REST probe", 0, nil)
	}

	body, err := s.client.GetJSON(ctx, endpoint+"/page/"+url.PathEscape(title), nil)
	if err != nil {
		return nil, err
	}

	if !gjson.GetBytes(body, "key").Exists() {
		return nil, errors.NewAPIError("REST page response missing key", 200, map[string]any{
			"endpoint": endpoint,
		})
	}

	// REST surface does not expose the extension list; portable-infobox parsing
	// is still attempted opportunistically on rendered HTML.
	return &domain.SiteProfile{
		SiteRoot:   siteRoot,
		APIBaseURL: endpoint,
		Style:      domain.APIStyleREST,
		Family:     family,
	}, nil
}

func (s *DiscoveryService) cachedProfile(ctx context.Context, siteRoot string) *domain.SiteProfile {
	s.mu.RLock()
	profile, ok := s.profiles[siteRoot]
	s.mu.RUnlock()
	if ok {
		return profile
	}

	if s.store == nil {
		return nil
	}
	var cached domain.SiteProfile
	found, err := s.store.Get(ctx, cacheKeySiteProfile+siteRoot, &cached)
	if err != nil || !found || cached.APIBaseURL == "" {
		return nil
	}
	cached.Family = domain.ClassifyFamily(hostOf(cached.SiteRoot))

	s.mu.Lock()
	s.profiles[siteRoot] = &cached
	s.mu.Unlock()
	return &cached
}

func (s *DiscoveryService) storeProfile(ctx context.Context, siteRoot string, profile *domain.SiteProfile) {
	s.mu.Lock()
	s.profiles[siteRoot] = profile
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(ctx, cacheKeySiteProfile+siteRoot, profile, constants.CacheTTL.SiteProfile); err != nil {
			s.logger.Debug("Site profile cache write failed", zap.Error(err))
		}
	}
}

func hostOf(siteRoot string) string {
	parsed, err := url.Parse(siteRoot)
	if err != nil {
		return siteRoot
	}
	return parsed.Host
}

// isTransportError reports whether an error means the endpoint never answered
// in any shape (network failure, timeout, 5xx).
func isTransportError(err error) bool {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode == 0 || apiErr.StatusCode >= 500
	}
	return true
}
