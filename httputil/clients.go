package httputil

import (
	"net/http"
	"net/url"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Clients struct {
	Scraping *http.Client // for retailer pages, proxied when configured
	API      *http.Client // direct, for delivery services
}

func NewClients(proxyAddr string) *Clients {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyAddr != "" {
		if proxyURL, err := url.Parse(proxyAddr); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	scraping := &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport,
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}

// NewPageRequest builds a GET for a retailer page with browser-like headers.
func NewPageRequest(pageURL string) (*http.Request, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-ZA,en;q=0.9")
	return req, nil
}
