package fetch

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"dealtracker/config"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// loadRenderedPage drives headless Chromium through the deals page: navigate,
// let the storefront settle, then scroll to trigger lazy-loading before
// capturing the final DOM.
func loadRenderedPage(ctx context.Context, cfg *config.RetailerConfig) (string, error) {
	pw, err := playwright.Run()
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(browserUserAgent),
	})
	if err != nil {
		return "", fmt.Errorf("new page: %w", err)
	}

	if _, err := page.Goto(cfg.DealsURL, playwright.PageGotoOptions{
		Timeout: playwright.Float(60000),
	}); err != nil {
		return "", fmt.Errorf("goto %s: %w", cfg.DealsURL, err)
	}

	settle := cfg.SettleMS
	if settle == 0 {
		settle = 7000
	}
	page.WaitForTimeout(float64(settle))

	rounds := cfg.ScrollRounds
	if rounds == 0 {
		rounds = 10
	}
	delay := cfg.ScrollDelayMS
	if delay == 0 {
		delay = 500
	}
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := page.Mouse().Wheel(0, 1000); err != nil {
			return "", fmt.Errorf("scroll: %w", err)
		}
		page.WaitForTimeout(float64(delay))
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}
