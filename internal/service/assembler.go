package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/castmeta/mediawiki-scraper/internal/config"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/util"
	scrapererrors "github.com/castmeta/mediawiki-scraper/pkg/errors"
)

// Pipeline stages, reported on failure so the caller knows how far a scrape got.
type Stage string

const (
	StageDiscovering Stage = "discovering"
	StageFetching    Stage = "fetching"
	StageParsing     Stage = "parsing"
	StageExtracting  Stage = "extracting"
	StageConverting  Stage = "converting"
	StageAssembling  Stage = "assembling"
)

// ExtractionFailure wraps a pipeline error with the stage it occurred in.
type ExtractionFailure struct {
	Stage Stage
	Err   error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("extraction failed at stage %s: %v", e.Stage, e.Err)
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

func failAt(stage Stage, err error) *ExtractionFailure {
	return &ExtractionFailure{Stage: stage, Err: err}
}

// PerformerAssembler drives the scrape pipeline end to end: discover the
// site's API, fetch and parse the page, extract and convert fields, and
// assemble the canonical record.
type PerformerAssembler struct {
	discovery *DiscoveryService
	parser    *ContentParser
	extractor *FieldExtractor
	converter *Converter
	images    *ImageExtractor
	cfg       config.ScraperConfig
	logger    *zap.Logger
}

func NewPerformerAssembler(
	discovery *DiscoveryService,
	parser *ContentParser,
	extractor *FieldExtractor,
	converter *Converter,
	images *ImageExtractor,
	cfg config.ScraperConfig,
	logger *zap.Logger,
) *PerformerAssembler {
	return &PerformerAssembler{
		discovery: discovery,
		parser:    parser,
		extractor: extractor,
		converter: converter,
		images:    images,
		cfg:       cfg,
		logger:    logger.Named("assembler"),
	}
}

// ScrapePerformerByURL runs the full pipeline for one page URL. A page with
// no structured data still yields a partial record (name, description,
// images) instead of a hard failure.
func (a *PerformerAssembler) ScrapePerformerByURL(ctx context.Context, pageURL string) (*domain.PerformerRecord, error) {
	profile, err := a.discovery.Discover(ctx, pageURL)
	if err != nil {
		return nil, failAt(StageDiscovering, err)
	}
	a.logger.Info("Site discovered",
		zap.String("root", profile.SiteRoot),
		zap.String("style", string(profile.Style)),
		zap.String("family", string(profile.Family)))

	content, err := a.parser.Parse(ctx, pageURL, profile)
	if err != nil {
		return nil, failAt(StageFetching, err)
	}

	record := &domain.PerformerRecord{URL: pageURL}

	if !content.HasStructuredData() {
		a.logger.Warn("Page has no structured data, assembling partial record",
			zap.String("title", content.Title))
		a.assemblePartial(ctx, record, content, profile)
		if !record.HasUsableName() {
			return nil, failAt(StageParsing, scrapererrors.NewValidationError("performer has no usable name", "name", record.Name))
		}
		return record, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, failAt(StageExtracting, err)
	}
	fields := a.extractor.Extract(content)
	a.convert(record, fields)
	a.assemble(ctx, record, content, profile)

	if !record.HasUsableName() {
		return nil, failAt(StageAssembling, scrapererrors.NewValidationError("performer has no usable name", "name", record.Name))
	}
	a.logger.Info("Performer assembled",
		zap.String("name", record.Name),
		zap.Int("images", len(record.Images)),
		zap.Int("anomalies", len(record.Anomalies)))
	return record, nil
}

// convert standardizes every extracted slot. Conversion never drops a value:
// anything that fails to standardize is passed through raw with an anomaly.
func (a *PerformerAssembler) convert(record *domain.PerformerRecord, fields *ExtractedFields) {
	if name, ok := fields.Get(domain.SlotName); ok {
		record.Name = util.CollapseWhitespace(CleanWikiMarkup(name))
	}
	record.Aliases = fields.Aliases

	if raw, ok := fields.Get(domain.SlotGender); ok {
		record.Gender = a.converter.Gender(CleanWikiMarkup(raw))
	}

	if raw, ok := fields.Get(domain.SlotHeight); ok {
		cleaned := CleanWikiMarkup(raw)
		if cm, converted := a.converter.Height(cleaned); converted {
			record.HeightCm = &cm
		} else {
			record.AddAnomaly(domain.SlotHeight, cleaned, "unparseable height")
		}
	}

	if raw, ok := fields.Get(domain.SlotWeight); ok {
		cleaned := CleanWikiMarkup(raw)
		if kg, converted := a.converter.Weight(cleaned); converted {
			record.WeightKg = &kg
		} else {
			record.AddAnomaly(domain.SlotWeight, cleaned, "unparseable weight")
		}
	}

	if raw, ok := fields.Get(domain.SlotMeasurements); ok {
		cleaned := CleanWikiMarkup(raw)
		if triad, converted := a.converter.Measurements(cleaned); converted {
			record.Measurements = triad
		} else {
			record.Measurements = cleaned
			record.AddAnomaly(domain.SlotMeasurements, cleaned, "nonstandard measurements")
		}
	}

	rawAge, _ := fields.Get(domain.SlotAge)
	if raw, ok := fields.Get(domain.SlotBirthdate); ok {
		cleaned := CleanWikiMarkup(raw)
		if bd, converted := a.converter.BirthDate(cleaned, rawAge); converted {
			record.BirthDate = bd
		} else {
			record.AddAnomaly(domain.SlotBirthdate, cleaned, "unparseable birthdate")
		}
	} else if rawAge != "" {
		if bd, converted := a.converter.BirthDate("", rawAge); converted {
			record.BirthDate = bd
		}
	}

	if raw, ok := fields.Get(domain.SlotHairColor); ok {
		cleaned := CleanWikiMarkup(raw)
		if color, converted := a.converter.HairColor(cleaned); converted {
			record.HairColor = color
		} else {
			record.HairColor = cleaned
			record.AddAnomaly(domain.SlotHairColor, cleaned, "unrecognized hair color")
		}
	}

	if raw, ok := fields.Get(domain.SlotEyeColor); ok {
		cleaned := CleanWikiMarkup(raw)
		if color, converted := a.converter.EyeColor(cleaned); converted {
			record.EyeColor = color
		} else {
			record.EyeColor = cleaned
			record.AddAnomaly(domain.SlotEyeColor, cleaned, "unrecognized eye color")
		}
	}

	if raw, ok := fields.Get(domain.SlotEthnicity); ok {
		record.Ethnicity = a.converter.Ethnicity(CleanWikiMarkup(raw))
	}

	if raw, ok := fields.Get(domain.SlotCountry); ok {
		record.Nationality = PrimaryNationality(CleanWikiMarkup(raw))
	}

	if raw, ok := fields.Get(domain.SlotCareerStart); ok {
		if year, converted := a.converter.CareerYear(CleanWikiMarkup(raw)); converted {
			record.CareerStartYear = year
		}
	}
	if raw, ok := fields.Get(domain.SlotCareerEnd); ok {
		if year, converted := a.converter.CareerYear(CleanWikiMarkup(raw)); converted {
			record.CareerEndYear = year
		}
	}

	if raw, ok := fields.Get(domain.SlotPiercings); ok {
		record.Piercings = util.CollapseWhitespace(CleanWikiMarkup(raw))
	}
	if raw, ok := fields.Get(domain.SlotTattoos); ok {
		record.Tattoos = util.CollapseWhitespace(CleanWikiMarkup(raw))
	}
	if raw, ok := fields.Get(domain.SlotFakeBoobs); ok {
		record.FakeBoobs = a.converter.FakeBoobs(CleanWikiMarkup(raw))
	}

	// A cup size with no measurements triad still carries signal.
	if record.Measurements == "" {
		if cup, ok := fields.Get(domain.SlotCupSize); ok {
			record.Measurements = strings.ToUpper(util.CollapseWhitespace(CleanWikiMarkup(cup)))
		}
	}

	if raw, ok := fields.Get(domain.SlotDisambiguation); ok {
		record.Disambiguation = util.CollapseWhitespace(CleanWikiMarkup(raw))
	}
}

// assemble fills in the non-infobox parts of the record: description with
// source attribution, universe handling, category tags, and the image gallery.
func (a *PerformerAssembler) assemble(ctx context.Context, record *domain.PerformerRecord, content *domain.PageContent, profile *domain.SiteProfile) {
	record.Description = a.buildDescription(content, profile)

	universe := detectUniverse(content, profile)
	if universe != "" {
		if a.cfg.MapUniverseToDisambiguation && record.Disambiguation == "" {
			record.Disambiguation = universe
		}
		if a.cfg.AddUniverseToTags {
			record.AddTag(universe)
		}
	}

	for _, tag := range characterTags(content.Categories) {
		record.AddTag(tag)
	}
	if a.cfg.ExtractCategories {
		record.Categories = content.Categories
	}

	record.Images = a.images.SelectImages(ctx, content.ImageURLs, record.Name)
}

// assemblePartial builds the degraded record for pages with no infobox.
func (a *PerformerAssembler) assemblePartial(ctx context.Context, record *domain.PerformerRecord, content *domain.PageContent, profile *domain.SiteProfile) {
	fields := a.extractor.Extract(content)
	if name, ok := fields.Get(domain.SlotName); ok {
		record.Name = util.CollapseWhitespace(CleanWikiMarkup(name))
	}
	record.Description = a.buildDescription(content, profile)
	record.Images = a.images.SelectImages(ctx, content.ImageURLs, record.Name)
	record.AddAnomaly("page", content.Title, "no structured data")
}

// buildDescription picks the best available prose, appends source
// attribution, and truncates on a sentence boundary.
func (a *PerformerAssembler) buildDescription(content *domain.PageContent, profile *domain.SiteProfile) string {
	description := strings.TrimSpace(content.FandomDescription)
	if description == "" {
		description = strings.TrimSpace(LeadDescriptionFromWikitext(content.Wikitext))
	}
	if description == "" {
		description = strings.TrimSpace(content.Extract)
	}
	if description == "" {
		description = strings.TrimSpace(LeadDescriptionFromHTML(content.RenderedHTML))
	}
	if description == "" {
		return ""
	}

	attribution := sourceAttribution(profile)
	limit := a.cfg.MaxDescriptionLength
	if limit > 0 {
		// Leave room for the attribution suffix.
		budget := util.Max(limit-len(attribution)-2, 0)
		if budget == 0 {
			// Cap too small for both; the prose wins over the suffix.
			return truncateAtSentence(description, limit)
		}
		description = truncateAtSentence(description, budget)
	}
	if attribution != "" {
		description = description + "\n\n" + attribution
	}
	return description
}

var fandomSubdomainRE = regexp.MustCompile(`^https?://([a-z0-9-]+)\.fandom\.com`)

// sourceAttribution names where the description came from.
func sourceAttribution(profile *domain.SiteProfile) string {
	if profile == nil || profile.SiteRoot == "" {
		return ""
	}
	if m := fandomSubdomainRE.FindStringSubmatch(profile.SiteRoot); m != nil {
		return "Source: " + titleCase(strings.ReplaceAll(m[1], "-", " ")) + " Wiki"
	}
	return "Source: " + hostOf(profile.SiteRoot)
}

// truncateAtSentence cuts text to at most limit runes, preferring the last
// sentence boundary inside the window. The limit is a hard bound: the
// ellipsis fallback counts toward it.
func truncateAtSentence(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 {
		return ""
	}
	if len(runes) <= limit {
		return text
	}
	window := string(runes[:limit])
	for _, boundary := range []string{". ", ".\n", "! ", "? "} {
		if idx := strings.LastIndex(window, boundary); idx > limit/2 {
			return strings.TrimSpace(window[:idx+1])
		}
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return util.TruncateString(text, limit-3)
}

var characterCategoryRE = regexp.MustCompile(`(?i)^(.+?)\s+characters$`)

var characterKeywords = []string{
	"character", "protagonist", "antagonist", "main character", "supporting character",
}

// detectUniverse infers the franchise a character belongs to, checking
// category names first and falling back to the wiki's subdomain.
func detectUniverse(content *domain.PageContent, profile *domain.SiteProfile) string {
	for _, category := range content.Categories {
		if m := characterCategoryRE.FindStringSubmatch(category); m != nil {
			candidate := strings.TrimSpace(m[1])
			// "Female characters" and the like name a trait, not a universe.
			if candidate != "" && !util.Contains([]string{"female", "male", "main", "minor", "supporting", "playable"}, strings.ToLower(candidate)) {
				return candidate
			}
		}
	}
	if profile != nil {
		if m := fandomSubdomainRE.FindStringSubmatch(profile.SiteRoot); m != nil {
			return titleCase(strings.ReplaceAll(m[1], "-", " "))
		}
	}
	return ""
}

// characterTags derives tags from categories that mark the page as a
// character page.
func characterTags(categories []string) []string {
	var tags []string
	for _, category := range categories {
		lower := strings.ToLower(category)
		for _, keyword := range characterKeywords {
			if strings.Contains(lower, keyword) {
				tags = append(tags, category)
				break
			}
		}
	}
	return util.Dedupe(tags)
}
