package models

import "time"

// Item is the simplified listing returned to clients.
type Item struct {
	Title        string   `json:"title"`
	Price        string   `json:"price"`
	PriceNumeric *float64 `json:"priceNumeric"`
	Currency     string   `json:"currency"`
	Condition    string   `json:"condition"`
	Image        string   `json:"image"`
	Link         string   `json:"link"`
	Seller       string   `json:"seller"`
	Shipping     string   `json:"shipping"`
	Country      string   `json:"country"`
}

// PriceStats aggregates the numeric prices of a result page. Min, Max and Avg
// are null when no item carried a parsable price.
type PriceStats struct {
	Count          int      `json:"count"`
	Min            *float64 `json:"min"`
	Max            *float64 `json:"max"`
	Avg            *float64 `json:"avg"`
	ReferencePrice *float64 `json:"referencePrice,omitempty"`
	Diff           *float64 `json:"diff,omitempty"`
	DiffPercent    *float64 `json:"diffPercent,omitempty"`
}

// SearchResult is the response body of the search endpoint.
type SearchResult struct {
	Items    []Item     `json:"itemSummaries"`
	Stats    PriceStats `json:"stats"`
	RawTotal int        `json:"raw_total"`
}

// CachedPage is what the result cache keeps for a query. Stats are not
// stored since they depend on the caller's reference price.
type CachedPage struct {
	Items     []Item    `json:"items"`
	RawTotal  int       `json:"raw_total"`
	FetchedAt time.Time `json:"fetched_at"`
}
