package fetch

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dealtracker/config"
	"dealtracker/httputil"
	"dealtracker/models"
)

// TakealotFetcher scrapes the all-deals listing. Product identity comes from
// the PLID token in each card's URL, resolved downstream by the normalizer's
// configured pattern.
type TakealotFetcher struct {
	cfg     *config.RetailerConfig
	clients *httputil.Clients
}

func (f *TakealotFetcher) ID() string {
	return f.cfg.ID
}

func (f *TakealotFetcher) Fetch(ctx context.Context) ([]models.RawListing, error) {
	html, err := loadPage(ctx, f.cfg, f.clients)
	if err != nil {
		return nil, err
	}
	return ParseTakealotDeals(html, f.cfg.BaseURL)
}

// ParseTakealotDeals extracts raw listings from the deals page DOM. Cards
// are product-card articles; prices sit in currency spans under the price
// and list-price list items.
func ParseTakealotDeals(html, baseURL string) ([]models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var listings []models.RawListing
	doc.Find("article[data-ref='product-card']").Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find("a.product-card-module_link-underlay_3sfaA").First().Attr("href")

		listing := models.RawListing{
			Title:     strings.TrimSpace(card.Find("h4[id^='product-card-heading']").First().Text()),
			URL:       resolveURL(baseURL, href),
			PriceText: strings.TrimSpace(card.Find("li[data-ref='price'] span.currency").First().Text()),
			OrigText:  strings.TrimSpace(card.Find("li[data-ref='list-price'] span.currency").First().Text()),
		}
		if src, ok := card.Find("img[data-ref='product-image']").First().Attr("src"); ok {
			listing.ImageURL = src
		}

		listings = append(listings, listing)
	})

	return listings, nil
}
