package fetch

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dealtracker/config"
	"dealtracker/httputil"
	"dealtracker/models"
)

// LootFetcher scrapes the daily deals page, which marks cards up as
// schema.org Product microdata. The productID meta carries the
// retailer-native identifier when present; otherwise the normalizer falls
// back to the URL slug.
type LootFetcher struct {
	cfg     *config.RetailerConfig
	clients *httputil.Clients
}

func (f *LootFetcher) ID() string {
	return f.cfg.ID
}

func (f *LootFetcher) Fetch(ctx context.Context) ([]models.RawListing, error) {
	html, err := loadPage(ctx, f.cfg, f.clients)
	if err != nil {
		return nil, err
	}
	return ParseLootDeals(html, f.cfg.BaseURL)
}

// ParseLootDeals extracts raw listings from the deals page DOM.
func ParseLootDeals(html, baseURL string) ([]models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var listings []models.RawListing
	doc.Find("div[itemtype='http://schema.org/Product']").Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find("a[itemprop='url']").First().Attr("href")

		listing := models.RawListing{
			Title: strings.TrimSpace(card.Find("[itemprop='name']").First().Text()),
			URL:   resolveURL(baseURL, href),
		}

		listing.PriceText = strings.TrimSpace(card.Find("[itemprop='offers'] .price").First().Text())
		if listing.PriceText == "" {
			// Server-rendered cards expose the numeric price only via microdata.
			if content, ok := card.Find("meta[itemprop='price']").First().Attr("content"); ok {
				listing.PriceText = "R " + content
			}
		}

		listing.OrigText = strings.TrimSpace(card.Find("[class*='listPriceValue'] .price").First().Text())

		if src, ok := card.Find("img[itemprop='image']").First().Attr("src"); ok {
			if strings.HasPrefix(src, "//") {
				src = "https:" + src
			}
			listing.ImageURL = src
		}

		if pid, ok := card.Find("meta[itemprop='productID']").First().Attr("content"); ok {
			listing.SourceID = pid
		}

		listings = append(listings, listing)
	})

	return listings, nil
}
