package service

import (
	"strings"
	"testing"

	"github.com/castmeta/mediawiki-scraper/internal/domain"
)

const sampleWikitext = `{{Character Infobox
|name = Tifa Lockhart
|height = 167 cm
|birthday = May 3
|weapon = {{plainlist|Leather Gloves|Metal Knuckle}}
|home = [[Nibelheim]]
|occupation = Bartender<ref>FFVII manual</ref>
}}
'''Tifa Lockhart''' is a playable character in the series. She is a member of the resistance group and runs a bar in the slums of the city.

== Appearance ==
Tifa has long dark hair.
`

func TestParseInfoboxFromWikitext(t *testing.T) {
	fields := ParseInfoboxFromWikitext(sampleWikitext)
	if fields == nil {
		t.Fatal("expected infobox fields")
	}

	tests := []struct {
		key  string
		want string
	}{
		{"name", "Tifa Lockhart"},
		{"height", "167 cm"},
		{"birthday", "May 3"},
		{"home", "Nibelheim"},
		{"occupation", "Bartender"},
	}
	for _, tt := range tests {
		if got, ok := fields.Get(tt.key); !ok || got != tt.want {
			t.Errorf("field %q = %q (ok=%v), want %q", tt.key, got, ok, tt.want)
		}
	}
}

func TestParseInfoboxNestedTemplateDoesNotBreakTokenizing(t *testing.T) {
	fields := ParseInfoboxFromWikitext(sampleWikitext)
	if fields == nil {
		t.Fatal("expected infobox fields")
	}
	// The nested {{plainlist|...}} pipes must not split the weapon parameter.
	if _, ok := fields.Get("leather gloves"); ok {
		t.Error("nested template pipes leaked into keys")
	}
}

func TestParseInfoboxNoTemplate(t *testing.T) {
	if fields := ParseInfoboxFromWikitext("Just prose, no templates here."); fields != nil {
		t.Errorf("expected nil, got %v", fields)
	}
	if fields := ParseInfoboxFromWikitext(""); fields != nil {
		t.Errorf("expected nil for empty input, got %v", fields)
	}
}

func TestParseInfoboxUnclosedTemplate(t *testing.T) {
	if fields := ParseInfoboxFromWikitext("{{Infobox character\n|name = Broken"); fields != nil {
		t.Errorf("unclosed template should yield nil, got %v", fields)
	}
}

func TestParseInfoboxCommentsStripped(t *testing.T) {
	wikitext := "{{Infobox\n|name = Aerith <!-- verify spelling -->\n}}"
	fields := ParseInfoboxFromWikitext(wikitext)
	if got, _ := fields.Get("name"); got != "Aerith" {
		t.Errorf("name = %q, want comment stripped", got)
	}
}

func TestCleanWikiMarkup(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"[[Nibelheim]]", "Nibelheim"},
		{"[[Nibelheim|hometown]]", "hometown"},
		{"'''Tifa'''", "Tifa"},
		{"167 cm<ref>guide</ref>", "167 cm"},
		{"<b>bold</b> text", "bold text"},
		{"{{height|167}}", ""},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanWikiMarkup(tt.raw); got != tt.want {
			t.Errorf("CleanWikiMarkup(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLeadDescriptionFromWikitext(t *testing.T) {
	lead := LeadDescriptionFromWikitext(sampleWikitext)
	if !strings.Contains(lead, "playable character") {
		t.Errorf("lead missing intro prose: %q", lead)
	}
	if strings.Contains(lead, "Appearance") || strings.Contains(lead, "==") {
		t.Errorf("lead leaked section content: %q", lead)
	}
	if strings.Contains(lead, "167") {
		t.Errorf("lead leaked infobox parameters: %q", lead)
	}
}

func TestImagesFromWikitext(t *testing.T) {
	profile := &domain.SiteProfile{
		SiteRoot: "https://finalfantasy.fandom.com",
		Family:   domain.FamilyFandom,
	}
	wikitext := `[[File:Tifa Portrait.png|thumb|Tifa]]
See https://static.example.com/art/tifa-render.jpg for the render.
[[File:Tifa Portrait.png]]`

	images := ImagesFromWikitext(wikitext, profile)
	if len(images) != 2 {
		t.Fatalf("images = %v, want two deduped entries", images)
	}
	if !strings.Contains(images[0], "Special:FilePath/Tifa_Portrait.png") {
		t.Errorf("file link not resolved: %q", images[0])
	}
	if images[1] != "https://static.example.com/art/tifa-render.jpg" {
		t.Errorf("bare URL not collected: %q", images[1])
	}
}
