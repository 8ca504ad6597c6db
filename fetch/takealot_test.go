package fetch

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestParseTakealotDeals(t *testing.T) {
	html := loadFixture(t, "takealot_deals.html")

	listings, err := ParseTakealotDeals(html, "https://www.takealot.com")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}

	first := listings[0]
	if first.Title != "Logitech MX Master 3S Wireless Mouse" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.URL != "https://www.takealot.com/logitech-mx-master-3s-wireless-mouse/PLID91234567" {
		t.Fatalf("unexpected URL %s", first.URL)
	}
	if first.PriceText != "R 1,899" {
		t.Fatalf("unexpected price %q", first.PriceText)
	}
	if first.OrigText != "R 2,499" {
		t.Fatalf("unexpected list price %q", first.OrigText)
	}
	if first.ImageURL != "https://media.takealot.com/covers_images/abc123/s-pdpxl.file" {
		t.Fatalf("unexpected image %s", first.ImageURL)
	}

	second := listings[1]
	if second.PriceText != "R 6,999" {
		t.Fatalf("unexpected price %q", second.PriceText)
	}
	if second.OrigText != "" {
		t.Fatalf("expected no list price, got %q", second.OrigText)
	}

	// Card without a price block still surfaces; the normalizer decides
	// whether it can be tracked.
	third := listings[2]
	if third.Title != "Mystery Bundle" {
		t.Fatalf("unexpected title %q", third.Title)
	}
	if third.PriceText != "" {
		t.Fatalf("expected empty price, got %q", third.PriceText)
	}
}

func TestParseTakealotDeals_EmptyPage(t *testing.T) {
	listings, err := ParseTakealotDeals("<html><body></body></html>", "https://www.takealot.com")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
}
