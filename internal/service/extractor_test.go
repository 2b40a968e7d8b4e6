package service

import (
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/castmeta/mediawiki-scraper/internal/domain"
)

func testExtractor(opts domain.AliasTableOptions) *FieldExtractor {
	return NewFieldExtractor(domain.NewAliasTable(opts), zap.NewNop())
}

func pageWithInfobox(title string, pairs map[string]string) *domain.PageContent {
	content := &domain.PageContent{
		Title:   title,
		Infobox: make(domain.InfoboxFields),
		Source:  domain.SourceWikitext,
	}
	for k, v := range pairs {
		content.Infobox.Set(k, v)
	}
	return content
}

func TestExtractFirstAliasWins(t *testing.T) {
	x := testExtractor(domain.AliasTableOptions{})
	content := pageWithInfobox("Tifa Lockhart", map[string]string{
		"full name": "Tifa Lockhart",
		"name":      "Tifa",
		"height":    "167 cm",
	})

	fields := x.Extract(content)

	if got, _ := fields.Get(domain.SlotName); got != "Tifa Lockhart" {
		t.Errorf("name = %q, want the higher-priority full name", got)
	}
	if got, _ := fields.Get(domain.SlotHeight); got != "167 cm" {
		t.Errorf("height = %q", got)
	}
}

func TestExtractDeterministic(t *testing.T) {
	x := testExtractor(domain.AliasTableOptions{})
	content := pageWithInfobox("Aerith", map[string]string{
		"name": "Aerith Gainsborough",
		"eyes": "Green",
		"hair": "Brown",
	})

	first := x.Extract(content)
	for i := 0; i < 5; i++ {
		again := x.Extract(content)
		if !reflect.DeepEqual(first.Slots, again.Slots) {
			t.Fatalf("extraction not deterministic: %v vs %v", first.Slots, again.Slots)
		}
	}
}

func TestExtractNameFallsBackToTitle(t *testing.T) {
	x := testExtractor(domain.AliasTableOptions{})

	tests := []struct {
		title string
		want  string
	}{
		{"Tifa Lockhart", "Tifa Lockhart"},
		{"Tifa Lockhart (Remake)", "Tifa Lockhart"},
		{"Characters/Tifa Lockhart", "Tifa Lockhart"},
	}
	for _, tt := range tests {
		fields := x.Extract(pageWithInfobox(tt.title, map[string]string{"height": "167 cm"}))
		if got, _ := fields.Get(domain.SlotName); got != tt.want {
			t.Errorf("title %q: name = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestExtractUnresolvedListed(t *testing.T) {
	x := testExtractor(domain.AliasTableOptions{})
	fields := x.Extract(pageWithInfobox("Someone", map[string]string{"height": "170 cm"}))

	found := false
	for _, slot := range fields.Unresolved {
		if slot == domain.SlotWeight {
			found = true
		}
	}
	if !found {
		t.Error("weight should be listed unresolved")
	}
}

func TestExtractRaceClaimsEthnicityWhenConfigured(t *testing.T) {
	x := testExtractor(domain.AliasTableOptions{MapRaceToEthnicity: true})
	fields := x.Extract(pageWithInfobox("Shadowheart", map[string]string{"race": "Half-Elf"}))

	if got, _ := fields.Get(domain.SlotEthnicity); got != "Half-Elf" {
		t.Errorf("ethnicity = %q, want race value claimed", got)
	}
}

func TestExtractAliases(t *testing.T) {
	x := testExtractor(domain.AliasTableOptions{})
	content := pageWithInfobox("Tifa Lockhart", map[string]string{
		"name":      "Tifa Lockhart",
		"aliases":   "Tifa / The Seventh Heaven Barmaid",
		"real_name": "Tifa Lockhart-Strife",
	})

	fields := x.Extract(content)

	want := []string{"Tifa", "The Seventh Heaven Barmaid", "Tifa Lockhart-Strife"}
	if !reflect.DeepEqual(fields.Aliases, want) {
		t.Errorf("aliases = %v, want %v", fields.Aliases, want)
	}
}

func TestSplitCompoundAlias(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"Tifa", []string{"Tifa"}},
		{"Tifa / Teef", []string{"Tifa", "Teef"}},
		{"Cloud aka SOLDIER Boy", []string{"Cloud", "SOLDIER Boy"}},
		{"A or B or C", []string{"A", "B", "C"}},
		{"MyNameIsEarl", []string{"My Name Is Earl"}},
		{"JoJo", []string{"JoJo"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := SplitCompoundAlias(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitCompoundAlias(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestPrimaryNationality(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Japanese", "Japanese"},
		{"Japanese (Nibelheim)", "Japanese"},
		{"American / Canadian", "American"},
		{"British, Welsh", "British"},
		{"French[1]", "French"},
	}
	for _, tt := range tests {
		if got := PrimaryNationality(tt.raw); got != tt.want {
			t.Errorf("PrimaryNationality(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
