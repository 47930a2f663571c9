package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalize_FullRecord(t *testing.T) {
	raw := gjson.Parse(`{
		"title": "LEGO Technic 42115",
		"price": {"value": "299.99", "currency": "EUR"},
		"condition": "Nuovo",
		"image": {"imageUrl": "https://i.ebayimg.com/main.jpg"},
		"thumbnailImages": [{"imageUrl": "https://i.ebayimg.com/thumb.jpg"}],
		"itemWebUrl": "https://www.ebay.it/itm/1",
		"itemHref": "https://api.ebay.com/buy/browse/v1/item/v1|1|0",
		"seller": {"username": "brickshop"},
		"shippingOptions": [{"shippingCost": {"value": "0.00", "currency": "EUR"}}],
		"itemLocation": {"country": "IT"}
	}`)

	item := Normalize(raw)

	assert.Equal(t, "LEGO Technic 42115", item.Title)
	assert.Equal(t, "299.99", item.Price)
	require.NotNil(t, item.PriceNumeric)
	assert.InDelta(t, 299.99, *item.PriceNumeric, 1e-9)
	assert.Equal(t, "EUR", item.Currency)
	assert.Equal(t, "Nuovo", item.Condition)
	assert.Equal(t, "https://i.ebayimg.com/main.jpg", item.Image)
	assert.Equal(t, "https://www.ebay.it/itm/1", item.Link)
	assert.Equal(t, "brickshop", item.Seller)
	assert.Equal(t, FreeShippingLabel, item.Shipping)
	assert.Equal(t, "IT", item.Country)
}

func TestNormalize_EmptyRecord(t *testing.T) {
	item := Normalize(gjson.Parse(`{}`))

	assert.Equal(t, "", item.Title)
	assert.Equal(t, NoPrice, item.Price)
	assert.Nil(t, item.PriceNumeric)
	assert.Equal(t, DefaultCurrency, item.Currency)
	assert.Equal(t, "", item.Image)
	assert.Equal(t, "", item.Link)
	assert.Equal(t, "", item.Seller)
	assert.Equal(t, "", item.Shipping)
	assert.Equal(t, "", item.Country)
}

func TestNormalize_PriceCascade(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantPrice    string
		wantCurrency string
	}{
		{
			name:         "direct price wins",
			raw:          `{"price":{"value":"10.00","currency":"EUR"},"currentBidPrice":{"value":"5.00","currency":"USD"}}`,
			wantPrice:    "10.00",
			wantCurrency: "EUR",
		},
		{
			name:         "current bid",
			raw:          `{"currentBidPrice":{"value":"5.50","currency":"GBP"}}`,
			wantPrice:    "5.50",
			wantCurrency: "GBP",
		},
		{
			name:         "price range minimum",
			raw:          `{"priceRange":{"min":{"value":"3.00","currency":"CHF"},"max":{"value":"9.00","currency":"CHF"}}}`,
			wantPrice:    "3.00",
			wantCurrency: "CHF",
		},
		{
			name:         "empty price value falls through",
			raw:          `{"price":{"value":"","currency":""},"currentBidPrice":{"value":"7.00"}}`,
			wantPrice:    "7.00",
			wantCurrency: DefaultCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Normalize(gjson.Parse(tt.raw))
			assert.Equal(t, tt.wantPrice, item.Price)
			assert.Equal(t, tt.wantCurrency, item.Currency)
		})
	}
}

func TestNormalize_ImageAndLinkCascade(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantImage string
		wantLink  string
	}{
		{
			name:      "thumbnail and href",
			raw:       `{"thumbnailImages":[{"imageUrl":"thumb"}],"additionalImages":[{"imageUrl":"extra"}],"itemHref":"href"}`,
			wantImage: "thumb",
			wantLink:  "href",
		},
		{
			name:      "additional image only",
			raw:       `{"additionalImages":[{"imageUrl":"extra"},{"imageUrl":"second"}]}`,
			wantImage: "extra",
			wantLink:  "",
		},
		{
			name:      "empty thumbnail list",
			raw:       `{"thumbnailImages":[],"itemWebUrl":"web"}`,
			wantImage: "",
			wantLink:  "web",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Normalize(gjson.Parse(tt.raw))
			assert.Equal(t, tt.wantImage, item.Image)
			assert.Equal(t, tt.wantLink, item.Link)
		})
	}
}

func TestNormalize_Shipping(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "free", raw: `{"shippingOptions":[{"shippingCost":{"value":"0.00","currency":"EUR"}}]}`, want: FreeShippingLabel},
		{name: "paid", raw: `{"shippingOptions":[{"shippingCost":{"value":"4.90","currency":"EUR"}}]}`, want: "4.90 EUR"},
		{name: "zero written differently is not free", raw: `{"shippingOptions":[{"shippingCost":{"value":"0","currency":"EUR"}}]}`, want: "0 EUR"},
		{name: "no currency", raw: `{"shippingOptions":[{"shippingCost":{"value":"3.00"}}]}`, want: "3.00"},
		{name: "option without cost", raw: `{"shippingOptions":[{"shippingCostType":"CALCULATED"}]}`, want: ""},
		{name: "no options", raw: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(gjson.Parse(tt.raw)).Shipping)
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	body := gjson.Parse(`{"itemSummaries":[{"title":"a"},{"title":"b"}]}`)
	items := NormalizeAll(body.Get("itemSummaries"))
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Title)
	assert.Equal(t, "b", items[1].Title)

	missing := NormalizeAll(body.Get("nothing"))
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}
