package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/castmeta/mediawiki-scraper/internal/config"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/util"
)

// Converter standardizes raw slot values. Every method is total: it either
// returns a standardized value or reports false so the caller can pass the raw
// value through with an anomaly flag. Conversions are deterministic and
// idempotent — feeding an already-standardized value back in is a no-op.
type Converter struct {
	cfg config.ScraperConfig
}

func NewConverter(cfg config.ScraperConfig) *Converter {
	return &Converter{cfg: cfg}
}

const lbsPerKg = 0.453592

var (
	heightCmRE       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:cm|centimeters?)`)
	heightImperialRE = regexp.MustCompile(`(\d+)\s*'\s*(\d+(?:\.\d+)?)\s*(?:"|''|”)?`)
	bareNumberRE     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	weightKgRE       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|kilograms?)`)
	weightLbsRE      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:lbs?|pounds?)`)
)

// Height converts a raw height to whole centimeters. Accepts explicit metric,
// imperial feet'inches" notation, and bare numbers inside the plausible
// 100–250 cm window.
func (c *Converter) Height(raw string) (int, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}

	var cm float64
	switch {
	case heightCmRE.MatchString(cleaned):
		cm, _ = strconv.ParseFloat(heightCmRE.FindStringSubmatch(cleaned)[1], 64)
	case heightImperialRE.MatchString(cleaned):
		m := heightImperialRE.FindStringSubmatch(cleaned)
		feet, _ := strconv.ParseFloat(m[1], 64)
		inches, _ := strconv.ParseFloat(m[2], 64)
		cm = (feet*12 + inches) * 2.54
	case bareNumberRE.MatchString(cleaned):
		cm, _ = strconv.ParseFloat(cleaned, 64)
	default:
		return 0, false
	}

	rounded := int(math.Round(cm))
	if rounded < 100 || rounded > 250 {
		return 0, false
	}
	return rounded, true
}

// Weight converts a raw weight to kilograms with one decimal. Accepts explicit
// metric, pounds, and bare numbers inside the plausible 20–200 kg window.
func (c *Converter) Weight(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}

	var kg float64
	switch {
	case weightKgRE.MatchString(cleaned):
		kg, _ = strconv.ParseFloat(weightKgRE.FindStringSubmatch(cleaned)[1], 64)
	case weightLbsRE.MatchString(cleaned):
		lbs, _ := strconv.ParseFloat(weightLbsRE.FindStringSubmatch(cleaned)[1], 64)
		kg = lbs * lbsPerKg
	case bareNumberRE.MatchString(cleaned):
		kg, _ = strconv.ParseFloat(cleaned, 64)
	default:
		return 0, false
	}

	kg = math.Round(kg*10) / 10
	if kg < 20 || kg > 200 {
		return 0, false
	}
	return kg, true
}

var (
	cmSuffixRE     = regexp.MustCompile(`(?i)\s*cm\s*`)
	triadRE        = regexp.MustCompile(`^(\d{2,3})\s*([A-Za-z]{1,4})?\s*[-–—/]\s*(\d{2,3})\s*[-–—/]\s*(\d{2,3})$`)
	bwhRE          = regexp.MustCompile(`(?i)^B\s*(\d{2,3})\s*[\s/]*W\s*(\d{2,3})\s*[\s/]*H\s*(\d{2,3})$`)
)

// Measurements standardizes bust-waist-hip notation: uniform hyphen
// separators, upper-case cup letters, "B88 W60 H90" folded into triad form.
// Anything that is not a three-component measurement reports false.
func (c *Converter) Measurements(raw string) (string, bool) {
	cleaned := strings.TrimSpace(cmSuffixRE.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return "", false
	}

	if m := triadRE.FindStringSubmatch(cleaned); m != nil {
		cup := strings.ToUpper(m[2])
		return fmt.Sprintf("%s%s-%s-%s", m[1], cup, m[3], m[4]), true
	}
	if m := bwhRE.FindStringSubmatch(cleaned); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), true
	}
	return "", false
}

var (
	isoDateRE     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	usDateRE      = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	longDateRE    = regexp.MustCompile(`(?i)\b([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})\b`)
	ageStatedRE   = regexp.MustCompile(`(?i)(?:age|aged)\s*:?\s*(\d{1,5})`)
	yearsOldRE    = regexp.MustCompile(`(?i)\b(\d{1,5})\s*(?:years?\s*old|yo)\b`)
	bornYearRE    = regexp.MustCompile(`(?i)\bborn\s*(?:in\s*)?(\d{4})\b`)
	circaYearRE   = regexp.MustCompile(`(?i)\bc\.?\s*(\d{4})\b`)
	bareYearRE    = regexp.MustCompile(`^\s*(\d{4})\s*$`)
	monthDayRE    = regexp.MustCompile(`(?i)\b([A-Za-z]+)\s+(\d{1,2})\b`)
	numMonthDayRE = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`)
	ageNumberRE   = regexp.MustCompile(`(\d{1,5})`)
	anyYearRE     = regexp.MustCompile(`\d{4}`)
)

var monthNumbers = map[string]int{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10, "november": 11, "nov": 11, "december": 12, "dec": 12,
}

// BirthDate converts a raw birthdate (and optional raw age) into an ISO date.
// Exact full dates convert unconditionally. Partial shapes are approximated
// only when enabled by configuration: year-only becomes YYYY-01-01; month-day
// with a stated age derives the year from the reference year; month-day alone
// falls back to the configured default birth year. Every inferred date is
// flagged approximate.
func (c *Converter) BirthDate(raw, rawAge string) (*domain.BirthDate, bool) {
	cleaned := util.CollapseWhitespace(raw)
	if cleaned == "" && rawAge == "" {
		return nil, false
	}

	if bd := exactDate(cleaned); bd != nil {
		return bd, true
	}

	if !c.cfg.ApproximateBirthdate {
		return nil, false
	}

	refYear := c.cfg.ReferenceYearOrNow()
	age := extractAge(rawAge)
	if age == 0 {
		age = extractAge(cleaned)
	}

	// Month and day without a year
	if month, day, ok := monthDayOf(cleaned); ok {
		year := c.cfg.DefaultBirthYear
		if age > 0 {
			year = refYear - age
		}
		return &domain.BirthDate{
			Date:        fmt.Sprintf("%04d-%02d-%02d", year, month, day),
			Approximate: true,
		}, true
	}

	if m := bornYearRE.FindStringSubmatch(cleaned); m != nil {
		return approximateYear(m[1])
	}
	if m := circaYearRE.FindStringSubmatch(cleaned); m != nil {
		return approximateYear(m[1])
	}
	if m := bareYearRE.FindStringSubmatch(cleaned); m != nil {
		return approximateYear(m[1])
	}

	if age > 0 && age <= 10000 {
		return &domain.BirthDate{
			Date:        fmt.Sprintf("%04d-01-01", refYear-age),
			Approximate: true,
		}, true
	}

	return nil, false
}

func exactDate(cleaned string) *domain.BirthDate {
	if m := isoDateRE.FindStringSubmatch(cleaned); m != nil {
		return isoOf(m[1], m[2], m[3])
	}
	if m := usDateRE.FindStringSubmatch(cleaned); m != nil {
		return isoOf(m[3], m[1], m[2])
	}
	if m := longDateRE.FindStringSubmatch(cleaned); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			return isoOf(m[3], strconv.Itoa(month), m[2])
		}
	}
	return nil
}

func isoOf(yearStr, monthStr, dayStr string) *domain.BirthDate {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 {
		return nil
	}
	return &domain.BirthDate{Date: fmt.Sprintf("%04d-%02d-%02d", year, month, day)}
}

func approximateYear(yearStr string) (*domain.BirthDate, bool) {
	year, _ := strconv.Atoi(yearStr)
	if year < 1900 {
		return nil, false
	}
	return &domain.BirthDate{
		Date:        fmt.Sprintf("%04d-01-01", year),
		Approximate: true,
	}, true
}

// monthDayOf recognizes month-day shapes with no year: "June 12", "6/12".
func monthDayOf(cleaned string) (month, day int, ok bool) {
	// A four-digit year anywhere means this is not a month-day-only value.
	if anyYearRE.MatchString(cleaned) {
		return 0, 0, false
	}
	if m := monthDayRE.FindStringSubmatch(cleaned); m != nil {
		if mo, found := monthNumbers[strings.ToLower(m[1])]; found {
			d, _ := strconv.Atoi(m[2])
			if d >= 1 && d <= 31 {
				return mo, d, true
			}
		}
	}
	if m := numMonthDayRE.FindStringSubmatch(cleaned); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			return mo, d, true
		}
	}
	return 0, 0, false
}

func extractAge(raw string) int {
	if raw == "" {
		return 0
	}
	for _, re := range []*regexp.Regexp{ageStatedRE, yearsOldRE} {
		if m := re.FindStringSubmatch(raw); m != nil {
			age, _ := strconv.Atoi(m[1])
			return age
		}
	}
	// Bare age values ("21", "21+", "20-25" takes the lower bound)
	if !strings.ContainsAny(raw, "/") && len(raw) <= 12 {
		if m := ageNumberRE.FindStringSubmatch(raw); m != nil {
			age, _ := strconv.Atoi(m[1])
			if age >= 1 && age <= 10000 {
				return age
			}
		}
	}
	return 0
}

// Ethnicity categories used when mapping fictional races onto the host's
// real-world enumeration.
const (
	EthnicityCaucasian = "CAUCASIAN"
	EthnicityBlack     = "BLACK"
	EthnicityAsian     = "ASIAN"
	EthnicityOther     = "OTHER"
)

var raceEthnicityTable = map[string]string{
	"elf":       EthnicityCaucasian,
	"elven":     EthnicityCaucasian,
	"half-elf":  EthnicityCaucasian,
	"half elf":  EthnicityCaucasian,
	"human":     EthnicityCaucasian,
	"dwarf":     EthnicityCaucasian,
	"vampire":   EthnicityCaucasian,
	"angel":     EthnicityCaucasian,
	"nord":      EthnicityCaucasian,
	"hobbit":    EthnicityCaucasian,
	"halfling":  EthnicityCaucasian,
	"orc":       EthnicityOther,
	"half-orc":  EthnicityOther,
	"goblin":    EthnicityOther,
	"android":   EthnicityOther,
	"robot":     EthnicityOther,
	"cyborg":    EthnicityOther,
	"demon":     EthnicityOther,
	"succubus":  EthnicityOther,
	"alien":     EthnicityOther,
	"dragon":    EthnicityOther,
	"beastkin":  EthnicityOther,
	"undead":    EthnicityOther,
}

// Ethnicity resolves a raw race/species/ethnicity value. With fictional
// character features enabled the raw term is preserved verbatim; otherwise,
// when race mapping is on, fictional terms map onto the fixed enumeration
// with unmapped terms defaulting to OTHER.
func (c *Converter) Ethnicity(raw string) string {
	cleaned := util.CollapseWhitespace(raw)
	if cleaned == "" {
		return ""
	}

	if c.cfg.FictionalCharacterFeatures {
		return cleaned
	}
	if !c.cfg.MapRaceToEthnicity {
		return titleCase(cleaned)
	}

	if mapped, ok := raceEthnicityTable[util.Normalize(cleaned)]; ok {
		return mapped
	}
	// Already-standardized values stay put, everything else is OTHER.
	switch cleaned {
	case EthnicityCaucasian, EthnicityBlack, EthnicityAsian, EthnicityOther:
		return cleaned
	}
	return EthnicityOther
}

var (
	femaleValues = map[string]struct{}{"female": {}, "f": {}, "woman": {}, "girl": {}}
	maleValues   = map[string]struct{}{"male": {}, "m": {}, "man": {}, "boy": {}}
)

// Gender standardizes gender values onto the host's female/male enum, passing
// anything else through unchanged.
func (c *Converter) Gender(raw string) string {
	normalized := util.Normalize(raw)
	if _, ok := femaleValues[normalized]; ok {
		return "female"
	}
	if _, ok := maleValues[normalized]; ok {
		return "male"
	}
	return strings.TrimSpace(raw)
}

var hairColors = map[string]string{
	"black": "Black", "brown": "Brown", "brunette": "Brown", "blonde": "Blonde",
	"blond": "Blonde", "red": "Red", "ginger": "Red", "auburn": "Auburn",
	"grey": "Grey", "gray": "Grey", "white": "White", "silver": "Silver",
	"pink": "Pink", "blue": "Blue", "green": "Green", "purple": "Purple",
}

var eyeColors = map[string]string{
	"blue": "Blue", "green": "Green", "brown": "Brown", "hazel": "Hazel",
	"grey": "Grey", "gray": "Grey", "amber": "Amber", "black": "Black",
	"red": "Red", "violet": "Violet", "purple": "Violet", "golden": "Amber",
	"gold": "Amber",
}

// HairColor standardizes a hair color term; false when unrecognized.
func (c *Converter) HairColor(raw string) (string, bool) {
	return colorOf(raw, hairColors)
}

// EyeColor standardizes an eye color term; false when unrecognized.
func (c *Converter) EyeColor(raw string) (string, bool) {
	return colorOf(raw, eyeColors)
}

func colorOf(raw string, table map[string]string) (string, bool) {
	normalized := util.Normalize(raw)
	if color, ok := table[normalized]; ok {
		return color, true
	}
	// "Dark brown", "light blue" — match on the last word.
	words := strings.Fields(normalized)
	if len(words) > 1 {
		if color, ok := table[words[len(words)-1]]; ok {
			return color, true
		}
	}
	return "", false
}

var (
	fakeBoobsTrue  = map[string]struct{}{"yes": {}, "true": {}, "1": {}, "enhanced": {}}
	fakeBoobsFalse = map[string]struct{}{"no": {}, "false": {}, "0": {}, "natural": {}}
)

// FakeBoobs folds boolean-ish enhancement markers onto Yes/No.
func (c *Converter) FakeBoobs(raw string) string {
	normalized := util.Normalize(raw)
	if _, ok := fakeBoobsTrue[normalized]; ok {
		return "Yes"
	}
	if _, ok := fakeBoobsFalse[normalized]; ok {
		return "No"
	}
	return strings.TrimSpace(raw)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var careerYearRE = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// CareerYear extracts the year from a career start/end date string.
func (c *Converter) CareerYear(raw string) (string, bool) {
	if m := careerYearRE.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}
