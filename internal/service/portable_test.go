package service

import (
	"strings"
	"testing"
)

const portableHTML = `<aside class="portable-infobox">
  <h2 class="pi-title" data-source="name">Shadowheart</h2>
  <div class="pi-data" data-source="race">
    <h3 class="pi-data-label">Race</h3>
    <div class="pi-data-value">Half-Elf</div>
  </div>
  <div class="pi-data" data-source="aliases">
    <div class="pi-data-value"><ul><li>Jenevelle Hallowleaf</li><li>The Cleric</li></ul></div>
  </div>
  <div class="pi-data" data-source="empty">
    <div class="pi-data-value"></div>
  </div>
</aside>
<p>Shadowheart is a companion and a cleric of Shar encountered at the very start of the journey.</p>
<p>Short.</p>`

func TestParsePortableInfoboxHTML(t *testing.T) {
	fields := ParsePortableInfoboxHTML(portableHTML)
	if fields == nil {
		t.Fatal("expected fields")
	}

	if got, _ := fields.Get("name"); got != "Shadowheart" {
		t.Errorf("name = %q", got)
	}
	if got, _ := fields.Get("race"); got != "Half-Elf" {
		t.Errorf("race = %q", got)
	}
	if got, _ := fields.Get("aliases"); got != "Jenevelle Hallowleaf, The Cleric" {
		t.Errorf("aliases = %q, want list joined with commas", got)
	}
	if _, ok := fields.Get("empty"); ok {
		t.Error("empty values must not produce fields")
	}
}

func TestParseInfoboxTableFallback(t *testing.T) {
	html := `<table class="infoboxtable">
  <tr><td>Nationality:</td><td>Japanese</td></tr>
  <tr><td>Height:</td><td>167 cm</td></tr>
  <tr><td colspan="2">Header row</td></tr>
</table>`

	fields := ParsePortableInfoboxHTML(html)
	if fields == nil {
		t.Fatal("expected fields")
	}
	if got, _ := fields.Get("nationality"); got != "Japanese" {
		t.Errorf("nationality = %q", got)
	}
	if got, _ := fields.Get("height"); got != "167 cm" {
		t.Errorf("height = %q", got)
	}
}

func TestParsePortableInfoboxHTMLAbsent(t *testing.T) {
	if fields := ParsePortableInfoboxHTML("<p>No infobox here at all.</p>"); fields != nil {
		t.Errorf("expected nil, got %v", fields)
	}
}

func TestLeadDescriptionFromHTML(t *testing.T) {
	lead := LeadDescriptionFromHTML(portableHTML)
	if !strings.Contains(lead, "companion and a cleric") {
		t.Errorf("lead = %q", lead)
	}
	if strings.Contains(lead, "Short.") {
		t.Errorf("short fragments must be skipped: %q", lead)
	}
}

func TestLeadDescriptionSkipsInfoboxProse(t *testing.T) {
	html := `<aside><p>This paragraph lives inside the infobox aside and is plenty long enough.</p></aside>
<p>This is the actual article lead paragraph and it is definitely long enough too.</p>`

	lead := LeadDescriptionFromHTML(html)
	if strings.Contains(lead, "inside the infobox") {
		t.Errorf("aside prose leaked: %q", lead)
	}
	if !strings.Contains(lead, "actual article lead") {
		t.Errorf("article prose missing: %q", lead)
	}
}

func TestImagesFromHTML(t *testing.T) {
	html := `<a class="image" href="https://static.wikia.nocookie.net/bg3/images/a/ab/Shadowheart_Portrait.png/revision/latest?cb=1"></a>
<img src="//cdn.example.com/thumb/Shadowheart_small.jpg">
<meta property="og:image" content="https://static.wikia.nocookie.net/bg3/images/a/ab/Shadowheart_Portrait.png/revision/latest?cb=1">`

	images := ImagesFromHTML(html)
	if len(images) != 2 {
		t.Fatalf("images = %v, want og:image deduped against the link", images)
	}
	if !strings.HasPrefix(images[1], "https://cdn.example.com/") {
		t.Errorf("protocol-relative URL not normalized: %q", images[1])
	}
}
