package models

// DayFormat is the granularity at which snapshots are recorded.
const DayFormat = "2006-01-02"

// Deal is one day's recorded listing state for a product at a retailer.
// The (Retailer, ProductID, ScrapedDate) tuple is unique in the store;
// re-ingesting the same day is a no-op.
type Deal struct {
	ID          int64  `json:"id" db:"id"`
	Retailer    string `json:"retailer" db:"retailer"`
	ProductID   string `json:"product_id" db:"product_id"`
	Title       string `json:"title" db:"title"`
	URL         string `json:"url" db:"url"`
	Price       string `json:"price" db:"price"`
	PriceValue  *int   `json:"price_value" db:"price_value"`
	OrigPrice   string `json:"orig_price" db:"orig_price"`
	Category    string `json:"category" db:"category"`
	Image       string `json:"image" db:"image"`
	ScrapedDate string `json:"scraped_date" db:"scraped_date"`
}

// RawListing is what a retailer fetcher hands to the normalizer: the listing
// exactly as the source page shows it, before identity or price resolution.
type RawListing struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	PriceText string `json:"price_text"`
	OrigText  string `json:"orig_text"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	SourceID  string `json:"source_id"` // retailer-native product identifier, if the page exposes one
}

// DigestEntry is a day's snapshot annotated for renderers.
type DigestEntry struct {
	Retailer   string `json:"retailer"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	OrigPrice  string `json:"orig_price"`
	URL        string `json:"url"`
	Image      string `json:"image"`
	Category   string `json:"category"`
	PriceValue *int   `json:"price_value"`
	IsNewLow   bool   `json:"is_new_low"`
}
