package mailer

import (
	"strings"
	"testing"

	"dealtracker/models"
	"dealtracker/services"
)

func TestBuildContent(t *testing.T) {
	digest := &services.Digest{
		Date: "2026-08-29",
		Deals: []models.DigestEntry{
			{Title: "Mouse & Pad", Price: "R 500", OrigPrice: "R 800", URL: "https://example.com/1", Category: "Takealot • Electronics", IsNewLow: true},
			{Title: "Serum", Price: "R 200", URL: "https://example.com/2", Category: "Loot • Beauty", IsNewLow: false},
			{Title: "Keyboard", Price: "R 900", URL: "https://example.com/3", Category: "Takealot • Electronics", IsNewLow: true},
		},
	}

	plain, html := BuildContent(digest, 10)

	if !strings.Contains(plain, "Mouse & Pad: R 500") {
		t.Fatalf("plain body missing deal: %q", plain)
	}
	if strings.Contains(plain, "Serum") {
		t.Fatalf("non-low deal should be excluded from digest email")
	}
	if !strings.Contains(html, "Mouse &amp; Pad") {
		t.Fatalf("html body should escape titles: %q", html)
	}
	if !strings.Contains(html, "<del>R 800</del>") {
		t.Fatalf("html body missing struck-through original price")
	}
	if !strings.Contains(html, "Keyboard") {
		t.Fatalf("html body missing second new low")
	}
}

func TestBuildContent_Cap(t *testing.T) {
	digest := &services.Digest{Date: "2026-08-29"}
	for i := 0; i < 15; i++ {
		digest.Deals = append(digest.Deals, models.DigestEntry{
			Title: "Deal", Price: "R 1", URL: "https://example.com", IsNewLow: true,
		})
	}

	_, html := BuildContent(digest, 10)
	if got := strings.Count(html, "<li>"); got != 10 {
		t.Fatalf("expected 10 entries, got %d", got)
	}
}

func TestBuildContent_NoNewLows(t *testing.T) {
	digest := &services.Digest{
		Date:  "2026-08-29",
		Deals: []models.DigestEntry{{Title: "Serum", Price: "R 200", IsNewLow: false}},
	}

	plain, html := BuildContent(digest, 10)
	if plain != "No new low deals today." {
		t.Fatalf("unexpected plain body %q", plain)
	}
	if html != "<p>No new low deals today.</p>" {
		t.Fatalf("unexpected html body %q", html)
	}
}
