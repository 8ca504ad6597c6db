package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"dealtracker/models"
)

// CategoryRule classifies a deal by keywords found in the lowercased title.
// Rules are advisory metadata only; they never affect identity or price
// comparison.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultCategoryRules covers the product lines the digest started with.
// Retailer configs can swap in their own table without touching the
// normalizer.
var DefaultCategoryRules = []CategoryRule{
	{Category: "Beauty", Keywords: []string{"foundation", "eyeliner", "lip", "mascara", "skincare", "cream", "serum"}},
	{Category: "Electronics", Keywords: []string{"tv", "monitor", "laptop", "iphone", "phone", "charger", "adapter", "tablet", "gaming", "headphone"}},
}

// DefaultCategory is used when no rule matches and the retailer supplies none.
const DefaultCategory = "Other"

var (
	digitRun    = regexp.MustCompile(`\d[\d,]*`)
	nonSlugChar = regexp.MustCompile(`[^a-z0-9]+`)
)

// Normalizer converts one retailer's raw listings into canonical Deal
// snapshots. It is a pure function of its inputs plus the rule table.
type Normalizer struct {
	retailer  string
	idPattern *regexp.Regexp
	rules     []CategoryRule
}

// New builds a normalizer for a retailer. idPattern, when non-empty, is a
// regexp with one capture group matched against the product URL to extract
// the retailer-native identifier (e.g. `/PLID(\d+)` for Takealot).
func New(retailer, idPattern string, rules []CategoryRule) (*Normalizer, error) {
	n := &Normalizer{retailer: retailer, rules: rules}
	if rules == nil {
		n.rules = DefaultCategoryRules
	}
	if idPattern != "" {
		re, err := regexp.Compile(idPattern)
		if err != nil {
			return nil, fmt.Errorf("product id pattern: %w", err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("product id pattern %q has no capture group", idPattern)
		}
		n.idPattern = re
	}
	return n, nil
}

func (n *Normalizer) Retailer() string {
	return n.retailer
}

// Normalize produces a Deal snapshot for the given day, or ok=false when the
// record cannot be deduplicated or tracked: no title, no URL, or no
// derivable identifier. An unparseable price alone is not a rejection; the
// snapshot is kept with a null price_value and sits out low-price
// comparisons.
func (n *Normalizer) Normalize(raw *models.RawListing, day string) (models.Deal, bool) {
	if raw == nil || strings.TrimSpace(raw.Title) == "" || strings.TrimSpace(raw.URL) == "" {
		return models.Deal{}, false
	}

	priceValue := ParsePrice(raw.PriceText)
	productID := n.resolveProductID(raw)
	if productID == "" {
		return models.Deal{}, false
	}

	return models.Deal{
		Retailer:    n.retailer,
		ProductID:   productID,
		Title:       strings.TrimSpace(raw.Title),
		URL:         raw.URL,
		Price:       strings.TrimSpace(raw.PriceText),
		PriceValue:  priceValue,
		OrigPrice:   strings.TrimSpace(raw.OrigText),
		Category:    n.categorize(raw),
		Image:       raw.ImageURL,
		ScrapedDate: day,
	}, true
}

// ParsePrice extracts the first contiguous digit run from a displayed price,
// ignoring thousands separators and whitespace. Returns nil when the text
// holds no digits.
func ParsePrice(text string) *int {
	cleaned := strings.NewReplacer(" ", "", " ", "").Replace(text)
	m := digitRun.FindString(cleaned)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &v
}

// resolveProductID picks a stable per-product key: the source attribute if
// the page exposed one, else the retailer-native URL token, else the URL
// slug, else a truncated slug of the title. Deterministic for the same input
// so repeated scrapes converge on the same lineage.
func (n *Normalizer) resolveProductID(raw *models.RawListing) string {
	if raw.SourceID != "" {
		return raw.SourceID
	}

	if n.idPattern != nil {
		if m := n.idPattern.FindStringSubmatch(raw.URL); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}

	if slug := urlSlug(raw.URL); slug != "" {
		return slug
	}

	return Slugify(raw.Title, 64)
}

func urlSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

// Slugify lowercases s, collapses anything non-alphanumeric to single
// hyphens, and truncates to maxLen.
func Slugify(s string, maxLen int) string {
	slug := nonSlugChar.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	return slug
}

func (n *Normalizer) categorize(raw *models.RawListing) string {
	if raw.Category != "" {
		return raw.Category
	}
	title := strings.ToLower(raw.Title)
	for _, rule := range n.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(title, kw) {
				return rule.Category
			}
		}
	}
	return DefaultCategory
}
