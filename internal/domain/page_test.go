package domain

import "testing"

func TestInfoboxFieldsNormalizeKeys(t *testing.T) {
	fields := make(InfoboxFields)
	fields.Set("Hair  Color", "Brown")

	if got, ok := fields.Get("hair color"); !ok || got != "Brown" {
		t.Errorf("Get = %q, %v", got, ok)
	}
	if got, ok := fields.Get("HAIR COLOR"); !ok || got != "Brown" {
		t.Errorf("lookup should be case-insensitive, got %q, %v", got, ok)
	}
}

func TestInfoboxFieldsLastWins(t *testing.T) {
	fields := make(InfoboxFields)
	fields.Set("name", "First")
	fields.Set("Name", "Second")

	if got, _ := fields.Get("name"); got != "Second" {
		t.Errorf("got %q, want last definition", got)
	}
}

func TestInfoboxFieldsIgnoreEmpty(t *testing.T) {
	fields := make(InfoboxFields)
	fields.Set("", "value")
	fields.Set("key", "")

	if len(fields) != 0 {
		t.Errorf("fields = %v", fields)
	}
}

func TestInfoboxFieldsMerge(t *testing.T) {
	base := make(InfoboxFields)
	base.Set("height", "160 cm")
	base.Set("name", "Tifa")

	override := make(InfoboxFields)
	override.Set("height", "167 cm")

	base.Merge(override)
	if got, _ := base.Get("height"); got != "167 cm" {
		t.Errorf("height = %q, want the merged value", got)
	}
	if got, _ := base.Get("name"); got != "Tifa" {
		t.Errorf("name = %q, want untouched", got)
	}
}

func TestHasStructuredData(t *testing.T) {
	page := &PageContent{Infobox: make(InfoboxFields), Source: SourceNone}
	if page.HasStructuredData() {
		t.Error("empty infobox should not count")
	}

	page.Infobox.Set("name", "Tifa")
	page.Source = SourceWikitext
	if !page.HasStructuredData() {
		t.Error("wikitext infobox should count")
	}
}
