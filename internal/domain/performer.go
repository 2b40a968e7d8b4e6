package domain

import (
	"strings"

	"github.com/castmeta/mediawiki-scraper/internal/util"
)

// BirthDate is an ISO date plus a flag marking whether the date was inferred
// from partial information rather than stated exactly.
type BirthDate struct {
	Date        string `json:"date"`
	Approximate bool   `json:"approximate"`
}

// FieldAnomaly flags a slot whose raw value could not be standardized. The raw
// value is passed through alongside so the host never receives a silently
// wrong value.
type FieldAnomaly struct {
	Slot   string `json:"slot"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// PerformerRecord is the canonical output record, shaped to the host's
// ingestion schema. Every field is either absent or standardized.
type PerformerRecord struct {
	Name            string         `json:"name"`
	URL             string         `json:"url,omitempty"`
	Gender          string         `json:"gender,omitempty"`
	Aliases         []string       `json:"aliases,omitempty"`
	HeightCm        *int           `json:"height,omitempty"`
	WeightKg        *float64       `json:"weight,omitempty"`
	Measurements    string         `json:"measurements,omitempty"`
	HairColor       string         `json:"hair_color,omitempty"`
	EyeColor        string         `json:"eye_color,omitempty"`
	Ethnicity       string         `json:"ethnicity,omitempty"`
	Nationality     string         `json:"country,omitempty"`
	BirthDate       *BirthDate     `json:"birthdate,omitempty"`
	CareerStartYear string         `json:"career_start_year,omitempty"`
	CareerEndYear   string         `json:"career_end_year,omitempty"`
	Piercings       string         `json:"piercings,omitempty"`
	Tattoos         string         `json:"tattoos,omitempty"`
	FakeBoobs       string         `json:"fake_tits,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Categories      []string       `json:"categories,omitempty"`
	Images          []string       `json:"images,omitempty"`
	Description     string         `json:"details,omitempty"`
	Disambiguation  string         `json:"disambiguation,omitempty"`
	Anomalies       []FieldAnomaly `json:"anomalies,omitempty"`
}

var invalidNameValues = map[string]struct{}{
	"unknown": {},
	"n/a":     {},
	"none":    {},
	"":        {},
}

// HasUsableName reports whether the record names a real subject.
func (r *PerformerRecord) HasUsableName() bool {
	if r == nil {
		return false
	}
	_, invalid := invalidNameValues[util.Normalize(r.Name)]
	return !invalid
}

// AddTag appends a tag unless already present.
func (r *PerformerRecord) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" || util.Contains(r.Tags, tag) {
		return
	}
	r.Tags = append(r.Tags, tag)
}

// AddAnomaly records a conversion anomaly for a slot.
func (r *PerformerRecord) AddAnomaly(slot, raw, reason string) {
	r.Anomalies = append(r.Anomalies, FieldAnomaly{Slot: slot, Raw: raw, Reason: reason})
}
