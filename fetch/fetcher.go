package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"dealtracker/config"
	"dealtracker/httputil"
	"dealtracker/models"
)

// Fetcher returns one retailer's raw listing records. All network and
// browser interaction lives here; downstream components only ever see
// in-memory records.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context) ([]models.RawListing, error)
}

func New(cfg *config.RetailerConfig, clients *httputil.Clients) (Fetcher, error) {
	switch cfg.ID {
	case "takealot":
		return &TakealotFetcher{cfg: cfg, clients: clients}, nil
	case "loot":
		return &LootFetcher{cfg: cfg, clients: clients}, nil
	default:
		return nil, fmt.Errorf("unknown retailer: %s", cfg.ID)
	}
}

// loadPage gets the deals page HTML, either through a headless browser (for
// lazy-loaded storefronts) or a plain GET for retailers that render
// server-side.
func loadPage(ctx context.Context, cfg *config.RetailerConfig, clients *httputil.Clients) (string, error) {
	if cfg.Handler == "http" {
		return loadPageHTTP(ctx, cfg.DealsURL, clients)
	}
	return loadRenderedPage(ctx, cfg)
}

func loadPageHTTP(ctx context.Context, pageURL string, clients *httputil.Clients) (string, error) {
	req, err := httputil.NewPageRequest(pageURL)
	if err != nil {
		return "", err
	}
	resp, err := clients.Scraping.Do(req.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// resolveURL joins a possibly-relative href against the retailer's base URL.
func resolveURL(baseURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
