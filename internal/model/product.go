package model

import (
	"regexp"
	"strings"
)

// Product is an item ingested from a tenant's product feed.
type Product struct {
	ID             string  `json:"id,omitempty"`
	ProductID      string  `json:"product_id,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	Price          Price   `json:"price,omitempty"`
	Category       string  `json:"category,omitempty"`
	URL            string  `json:"url,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// ProductFeedRequest asks the remote API to ingest a product feed slice.
type ProductFeedRequest struct {
	URL       string `json:"url" validate:"required,url"`
	StartFrom int    `json:"start_from" validate:"gte=0"`
	EndAt     int    `json:"end_at" validate:"gte=0,gtefield=StartFrom"`
}

var extensionPattern = regexp.MustCompile(`(\.[a-zA-Z]+)$`)

// Thumbnail returns the 250x250 variant of Shopify hosted images; other
// URLs are returned unchanged.
func Thumbnail(src string) string {
	if src == "" || !strings.Contains(src, "shopify.com") {
		return src
	}
	base, query, hasQuery := strings.Cut(src, "?")
	base = extensionPattern.ReplaceAllString(base, "_250x250$1")
	if hasQuery {
		return base + "?" + query
	}
	return base
}

// Thumbnail returns the product's display image.
func (p Product) Thumbnail() string {
	return Thumbnail(p.ImageURL)
}
