package normalize

import (
	"testing"

	"dealtracker/models"
)

func newTestNormalizer(t *testing.T, idPattern string) *Normalizer {
	t.Helper()
	n, err := New("takealot", idPattern, nil)
	if err != nil {
		t.Fatalf("failed to build normalizer: %v", err)
	}
	return n
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"R 1,299", 1299},
		{"R 12 999", 12999},
		{"R 12 999", 12999},
		{"R499", 499},
		{"1,299.99", 1299},
		{"R 0", 0},
	}
	for _, c := range cases {
		got := ParsePrice(c.text)
		if got == nil {
			t.Fatalf("ParsePrice(%q) = nil, want %d", c.text, c.want)
		}
		if *got != c.want {
			t.Fatalf("ParsePrice(%q) = %d, want %d", c.text, *got, c.want)
		}
	}
}

func TestParsePrice_NoDigits(t *testing.T) {
	for _, text := range []string{"", "See offer", "R --"} {
		if got := ParsePrice(text); got != nil {
			t.Fatalf("ParsePrice(%q) = %d, want nil", text, *got)
		}
	}
}

func TestNormalize_ProductIDFromPattern(t *testing.T) {
	n := newTestNormalizer(t, `/PLID(\d+)`)

	deal, ok := n.Normalize(&models.RawListing{
		Title:     "Logitech MX Master 3S Wireless Mouse",
		URL:       "https://www.takealot.com/logitech-mx-master-3s/PLID91234567",
		PriceText: "R 1,899",
	}, "2026-08-30")
	if !ok {
		t.Fatalf("expected listing to normalize")
	}
	if deal.ProductID != "91234567" {
		t.Fatalf("expected product id 91234567, got %s", deal.ProductID)
	}
	if deal.PriceValue == nil || *deal.PriceValue != 1899 {
		t.Fatalf("unexpected price value %v", deal.PriceValue)
	}
	if deal.Retailer != "takealot" {
		t.Fatalf("unexpected retailer %s", deal.Retailer)
	}
	if deal.ScrapedDate != "2026-08-30" {
		t.Fatalf("unexpected scraped date %s", deal.ScrapedDate)
	}
}

func TestNormalize_SourceIDWins(t *testing.T) {
	n := newTestNormalizer(t, `/PLID(\d+)`)

	deal, ok := n.Normalize(&models.RawListing{
		Title:     "Widget",
		URL:       "https://example.com/widget/PLID111",
		PriceText: "R 50",
		SourceID:  "SKU-42",
	}, "2026-08-30")
	if !ok {
		t.Fatalf("expected listing to normalize")
	}
	if deal.ProductID != "SKU-42" {
		t.Fatalf("expected source id to win, got %s", deal.ProductID)
	}
}

func TestNormalize_ProductIDFromURLSlug(t *testing.T) {
	n := newTestNormalizer(t, "")

	deal, ok := n.Normalize(&models.RawListing{
		Title:     "Some Gadget",
		URL:       "https://www.loot.co.za/product/some-gadget/abcd-1234-g123",
		PriceText: "R 299",
	}, "2026-08-30")
	if !ok {
		t.Fatalf("expected listing to normalize")
	}
	if deal.ProductID != "abcd-1234-g123" {
		t.Fatalf("expected url slug id, got %s", deal.ProductID)
	}
}

func TestNormalize_ProductIDFromTitleSlug(t *testing.T) {
	n := newTestNormalizer(t, "")

	deal, ok := n.Normalize(&models.RawListing{
		Title:     "Deluxe  Fancy!! Gadget",
		URL:       "https://example.com/",
		PriceText: "R 100",
	}, "2026-08-30")
	if !ok {
		t.Fatalf("expected listing to normalize")
	}
	if deal.ProductID != "deluxe-fancy-gadget" {
		t.Fatalf("expected title slug id, got %s", deal.ProductID)
	}
}

func TestNormalize_SameInputSameIdentity(t *testing.T) {
	n := newTestNormalizer(t, `/PLID(\d+)`)
	raw := &models.RawListing{
		Title:     "Logitech MX Master 3S",
		URL:       "https://www.takealot.com/x/PLID91234567",
		PriceText: "R 1,899",
	}

	a, _ := n.Normalize(raw, "2026-08-29")
	b, _ := n.Normalize(raw, "2026-08-30")
	if a.ProductID != b.ProductID {
		t.Fatalf("identity not deterministic: %s vs %s", a.ProductID, b.ProductID)
	}
}

func TestNormalize_Rejections(t *testing.T) {
	n := newTestNormalizer(t, "")

	cases := []models.RawListing{
		{URL: "https://example.com/a", PriceText: "R 10"},    // no title
		{Title: "Thing", PriceText: "R 10"},                  // no URL
		{Title: "   ", URL: "https://example.com/a"},         // blank title
	}
	for i, raw := range cases {
		if _, ok := n.Normalize(&raw, "2026-08-30"); ok {
			t.Fatalf("case %d: expected rejection", i)
		}
	}
}

func TestNormalize_UnpricedKeptWhenIdentifiable(t *testing.T) {
	n := newTestNormalizer(t, "")

	deal, ok := n.Normalize(&models.RawListing{
		Title:     "Mystery Box",
		URL:       "https://example.com/products/mystery-box",
		PriceText: "See offer",
	}, "2026-08-30")
	if !ok {
		t.Fatalf("expected unpriced but identifiable listing to survive")
	}
	if deal.PriceValue != nil {
		t.Fatalf("expected nil price value, got %d", *deal.PriceValue)
	}
	if deal.Price != "See offer" {
		t.Fatalf("expected display price preserved, got %q", deal.Price)
	}
}

func TestCategorize(t *testing.T) {
	n := newTestNormalizer(t, "")

	cases := []struct {
		title, category, want string
	}{
		{"Maybelline Mascara Duo", "", "Beauty"},
		{"55\" 4K Smart TV", "", "Electronics"},
		{"Garden Hose 20m", "", "Other"},
		{"Garden Hose 20m", "Outdoor", "Outdoor"}, // retailer-supplied wins
	}
	for _, c := range cases {
		deal, ok := n.Normalize(&models.RawListing{
			Title:     c.title,
			URL:       "https://example.com/products/x",
			PriceText: "R 100",
			Category:  c.category,
		}, "2026-08-30")
		if !ok {
			t.Fatalf("%q: expected normalize ok", c.title)
		}
		if deal.Category != c.want {
			t.Fatalf("%q: expected category %s, got %s", c.title, c.want, deal.Category)
		}
	}
}

func TestNew_BadPattern(t *testing.T) {
	if _, err := New("x", `PLID\d+`, nil); err == nil {
		t.Fatalf("expected error for pattern without capture group")
	}
	if _, err := New("x", `PLID(`, nil); err == nil {
		t.Fatalf("expected error for invalid regexp")
	}
}

func TestSlugify(t *testing.T) {
	if got := Slugify("Hello, World!", 64); got != "hello-world" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := Slugify("A very long title that keeps going and going well past the limit", 16); len(got) > 16 {
		t.Fatalf("slug not truncated: %q", got)
	}
}
