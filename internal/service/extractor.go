package service

import (
	"regexp"
	"strings"

	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/util"
	"go.uber.org/zap"
)

// ExtractedFields is the field extractor's product: canonical slot → raw
// string, pre-conversion. Unresolved slots are listed, not errored — partial
// extraction is the normal case.
type ExtractedFields struct {
	Slots      map[string]string
	Aliases    []string
	Unresolved []string
}

func (e *ExtractedFields) Get(slot string) (string, bool) {
	v, ok := e.Slots[slot]
	return v, ok
}

// FieldExtractor maps infobox fields onto canonical slots using a prioritized
// alias table with first-match-wins resolution.
type FieldExtractor struct {
	table  *domain.AliasTable
	logger *zap.Logger
}

func NewFieldExtractor(table *domain.AliasTable, logger *zap.Logger) *FieldExtractor {
	return &FieldExtractor{table: table, logger: logger}
}

// Extract resolves every canonical slot against the page's infobox fields.
// Resolution is deterministic: slot order and alias priority are fixed for a
// run, and the first alias present wins even when later aliases also match.
func (x *FieldExtractor) Extract(content *domain.PageContent) *ExtractedFields {
	result := &ExtractedFields{Slots: make(map[string]string)}
	claimed := make(map[string]string) // raw key -> claiming slot

	for _, slot := range x.table.Slots() {
		for _, alias := range x.table.Aliases(slot) {
			key := util.NormalizeKey(alias)
			value, ok := content.Infobox[key]
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			if owner, taken := claimed[key]; taken && owner != slot {
				// One raw key feeds one slot; configured race keys are the
				// exception and claim into ethnicity only.
				continue
			}
			claimed[key] = slot
			result.Slots[slot] = strings.TrimSpace(value)
			break
		}
		if _, ok := result.Slots[slot]; !ok {
			result.Unresolved = append(result.Unresolved, slot)
		}
	}

	x.resolveName(result, content)
	x.resolveAliases(result, content)

	x.logger.Debug("Canonical slots resolved",
		zap.Int("resolved", len(result.Slots)),
		zap.Int("unresolved", len(result.Unresolved)),
	)
	return result
}

// resolveName falls back to the page title (subpage and parenthetical
// stripped) when no name-like infobox field exists.
func (x *FieldExtractor) resolveName(result *ExtractedFields, content *domain.PageContent) {
	if name, ok := result.Slots[domain.SlotName]; ok && name != "" {
		return
	}
	title := content.Title
	if idx := strings.LastIndex(title, "/"); idx >= 0 {
		title = title[idx+1:]
	}
	if idx := strings.Index(title, "("); idx >= 0 {
		title = title[:idx]
	}
	if title = strings.TrimSpace(title); title != "" {
		result.Slots[domain.SlotName] = title
	}
}

// resolveAliases splits the raw alias value into individual aliases and folds
// in real_name when it differs from the performer name.
func (x *FieldExtractor) resolveAliases(result *ExtractedFields, content *domain.PageContent) {
	name := result.Slots[domain.SlotName]

	var aliases []string
	if raw, ok := result.Slots[domain.SlotAliases]; ok {
		aliases = SplitCompoundAlias(raw)
	}
	if realName, ok := content.Infobox.Get("real_name"); ok {
		if cleaned := util.CollapseWhitespace(realName); cleaned != "" && cleaned != name {
			aliases = append(aliases, cleaned)
		}
	}

	var kept []string
	for _, alias := range util.Dedupe(aliases) {
		alias = strings.TrimSpace(alias)
		if len(alias) > 1 && alias != name {
			kept = append(kept, alias)
		}
	}
	result.Aliases = kept
}

var (
	aliasSeparators = []string{" / ", " | ", " or ", " aka ", " also known as "}
	camelBoundaryRE = regexp.MustCompile(`([a-z])([A-Z])`)
)

var commonWords = map[string]struct{}{
	"my": {}, "is": {}, "the": {}, "of": {}, "and": {}, "or": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {}, "from": {},
}

// SplitCompoundAlias breaks a compound alias string ("X / Y", "X aka Y") into
// individual aliases. Camel-case run-ons ("MyNameIsEarl") are spaced out when
// they read as a phrase rather than a stylized handle.
func SplitCompoundAlias(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	for _, sep := range aliasSeparators {
		if strings.Contains(text, sep) {
			var result []string
			for _, part := range strings.Split(text, sep) {
				result = append(result, SplitCompoundAlias(part)...)
			}
			return result
		}
	}

	if camelBoundaryRE.MatchString(text) {
		spaced := camelBoundaryRE.ReplaceAllString(text, "$1 $2")
		words := strings.Fields(spaced)
		if len(words) >= 3 {
			for _, word := range words {
				if _, common := commonWords[strings.ToLower(word)]; common {
					return []string{spaced}
				}
			}
		}
	}
	return []string{text}
}

var (
	parentheticalRE = regexp.MustCompile(`\([^)]*\)`)
	bracketedRE     = regexp.MustCompile(`\[[^\]]*\]`)
)

// PrimaryNationality reduces a multi-valued nationality string to its first
// entry, stripping parentheticals and citation brackets.
func PrimaryNationality(raw string) string {
	cleaned := parentheticalRE.ReplaceAllString(raw, "")
	cleaned = bracketedRE.ReplaceAllString(cleaned, "")

	for _, sep := range []string{"/", ",", ";", "&", " and ", " or "} {
		if idx := strings.Index(cleaned, sep); idx >= 0 {
			cleaned = cleaned[:idx]
			break
		}
	}
	cleaned = strings.Trim(util.CollapseWhitespace(cleaned), `"'`)
	if cleaned == "" {
		return strings.TrimSpace(raw)
	}
	return cleaned
}
