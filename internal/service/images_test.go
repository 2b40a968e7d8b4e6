package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/castmeta/mediawiki-scraper/internal/domain"
)

func testImageExtractor() *ImageExtractor {
	return NewImageExtractor(nil, false, zap.NewNop())
}

func TestSelectImagesTierOrdering(t *testing.T) {
	e := testImageExtractor()

	candidates := []string{
		"https://cdn.example.com/tifa_small.png",
		"https://cdn.example.com/tifa_render.png",
		"https://cdn.example.com/tifa_portrait.png",
	}
	got := e.SelectImages(context.Background(), candidates, "Tifa")

	if len(got) != 3 {
		t.Fatalf("images = %v", got)
	}
	if !strings.Contains(got[0], "portrait") {
		t.Errorf("priority-marked image should lead: %v", got)
	}
	if !strings.Contains(got[2], "small") {
		t.Errorf("low-marked image should trail: %v", got)
	}
}

func TestSelectImagesSkipsChrome(t *testing.T) {
	e := testImageExtractor()

	candidates := []string{
		"https://cdn.example.com/Site-logo.png",
		"https://cdn.example.com/Disambiguation.png",
		"https://cdn.example.com/Stub_icon.png",
		"https://cdn.example.com/aerith.png",
	}
	got := e.SelectImages(context.Background(), candidates, "Aerith")

	if len(got) != 1 || !strings.Contains(got[0], "aerith") {
		t.Errorf("images = %v, want only the subject image", got)
	}
}

func TestSelectImagesHostNameDoesNotTripSkipList(t *testing.T) {
	e := testImageExtractor()

	// "wiki" in the host must not disqualify the image.
	candidates := []string{"https://static.wikia.nocookie.net/ff/images/a/ab/Aerith.png/revision/latest"}
	if got := e.SelectImages(context.Background(), candidates, "Aerith"); len(got) != 1 {
		t.Errorf("images = %v, want the fandom CDN image kept", got)
	}
}

func TestSelectImagesNameMatchBreaksTies(t *testing.T) {
	e := testImageExtractor()

	candidates := []string{
		"https://cdn.example.com/scenery.png",
		"https://cdn.example.com/Tifa_Lockhart.png",
	}
	got := e.SelectImages(context.Background(), candidates, "Tifa Lockhart")
	if len(got) != 2 || !strings.Contains(got[0], "Tifa") {
		t.Errorf("images = %v, want the name-matched image first", got)
	}
}

func TestSelectImagesCapsGallery(t *testing.T) {
	e := testImageExtractor()

	candidates := []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/c.png",
		"https://cdn.example.com/d.png",
		"https://cdn.example.com/e.png",
	}
	if got := e.SelectImages(context.Background(), candidates, ""); len(got) != 3 {
		t.Errorf("gallery = %d images, want capped at 3", len(got))
	}
}

func TestSelectImagesDeterministic(t *testing.T) {
	e := testImageExtractor()

	candidates := []string{
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/c.png",
	}
	first := e.SelectImages(context.Background(), candidates, "")
	for i := 0; i < 5; i++ {
		again := e.SelectImages(context.Background(), candidates, "")
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("ordering not deterministic: %v vs %v", first, again)
			}
		}
	}
	// Equal ranks keep input order.
	if first[0] != candidates[0] {
		t.Errorf("images = %v, want input order preserved for equal ranks", first)
	}
}

func TestResolveImageURL(t *testing.T) {
	fandom := &domain.SiteProfile{SiteRoot: "https://finalfantasy.fandom.com", Family: domain.FamilyFandom}
	wikimedia := &domain.SiteProfile{SiteRoot: "https://en.wikipedia.org", Family: domain.FamilyWikimedia}

	tests := []struct {
		name     string
		filename string
		profile  *domain.SiteProfile
		want     string
	}{
		{
			"bare filename",
			"Tifa Portrait.png",
			fandom,
			"https://finalfantasy.fandom.com/wiki/Special:FilePath/Tifa_Portrait.png",
		},
		{
			"file prefix",
			"File:Tifa Portrait.png",
			fandom,
			"https://finalfantasy.fandom.com/wiki/Special:FilePath/Tifa_Portrait.png",
		},
		{
			"wikimedia resolves through commons",
			"Example.jpg",
			wikimedia,
			"https://commons.wikimedia.org/wiki/Special:FilePath/Example.jpg",
		},
		{
			"absolute passes through",
			"https://cdn.example.com/x.png",
			fandom,
			"https://cdn.example.com/x.png",
		},
		{
			"protocol relative",
			"//cdn.example.com/x.png",
			fandom,
			"https://cdn.example.com/x.png",
		},
		{"non-image rejected", "Notes.pdf", fandom, ""},
		{"empty", "", fandom, ""},
		{"no profile root", "Tifa.png", &domain.SiteProfile{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveImageURL(tt.filename, tt.profile); got != tt.want {
				t.Errorf("ResolveImageURL(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
