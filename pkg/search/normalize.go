package search

import (
	"strings"

	"github.com/tidwall/gjson"

	"deal-scout/pkg/models"
)

const (
	// DefaultCurrency is used when no price field carries a currency.
	DefaultCurrency = "EUR"
	// FreeShippingLabel replaces a shipping cost of exactly "0.00".
	FreeShippingLabel = "Spedizione gratuita"
	// NoPrice is the display price of an item without any price field.
	NoPrice = "N/D"

	freeShippingCost = "0.00"
)

var (
	pricePaths = []string{
		"price.value",
		"currentBidPrice.value",
		"priceRange.min.value",
	}
	currencyPaths = []string{
		"price.currency",
		"currentBidPrice.currency",
		"priceRange.min.currency",
	}
	imagePaths = []string{
		"image.imageUrl",
		"thumbnailImages.0.imageUrl",
		"additionalImages.0.imageUrl",
	}
	linkPaths = []string{
		"itemWebUrl",
		"itemHref",
	}
)

// firstPresent returns the first non-empty value among paths.
func firstPresent(raw gjson.Result, paths ...string) (string, bool) {
	for _, p := range paths {
		if v := raw.Get(p); v.Exists() && v.String() != "" {
			return v.String(), true
		}
	}
	return "", false
}

func stringOr(raw gjson.Result, path, fallback string) string {
	if v, ok := firstPresent(raw, path); ok {
		return v
	}
	return fallback
}

func priceOf(raw gjson.Result) (string, bool) {
	return firstPresent(raw, pricePaths...)
}

func currencyOf(raw gjson.Result) string {
	if v, ok := firstPresent(raw, currencyPaths...); ok {
		return v
	}
	return DefaultCurrency
}

func imageOf(raw gjson.Result) string {
	v, _ := firstPresent(raw, imagePaths...)
	return v
}

func linkOf(raw gjson.Result) string {
	v, _ := firstPresent(raw, linkPaths...)
	return v
}

func shippingOf(raw gjson.Result) string {
	cost := raw.Get("shippingOptions.0.shippingCost")
	if !cost.Exists() || cost.Type == gjson.Null {
		return ""
	}
	value := cost.Get("value").String()
	if value == freeShippingCost {
		return FreeShippingLabel
	}
	return strings.TrimSpace(value + " " + cost.Get("currency").String())
}

// Normalize maps one raw itemSummaries entry to an Item. Missing fields become
// defaults rather than errors.
func Normalize(raw gjson.Result) models.Item {
	item := models.Item{
		Title:     stringOr(raw, "title", ""),
		Price:     NoPrice,
		Currency:  currencyOf(raw),
		Condition: stringOr(raw, "condition", ""),
		Image:     imageOf(raw),
		Link:      linkOf(raw),
		Seller:    stringOr(raw, "seller.username", ""),
		Shipping:  shippingOf(raw),
		Country:   stringOr(raw, "itemLocation.country", ""),
	}

	if price, ok := priceOf(raw); ok {
		item.Price = price
		if n, ok := ToNumber(price); ok {
			item.PriceNumeric = &n
		}
	}

	return item
}

// NormalizeAll normalizes every entry of an itemSummaries array. A missing
// array yields an empty, non-nil slice.
func NormalizeAll(summaries gjson.Result) []models.Item {
	items := make([]models.Item, 0, len(summaries.Array()))
	for _, raw := range summaries.Array() {
		items = append(items, Normalize(raw))
	}
	return items
}
