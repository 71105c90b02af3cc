// internal/models/business.go
package models

// Business is a discovered local retailer candidate. It is created by
// business discovery, and enrichment (scoring, product verification) produces
// new values rather than mutating shared state across loop iterations.
type Business struct {
	PlaceID      string   `json:"placeId"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"reviewCount"`
	Website      string   `json:"website,omitempty"`
	Types        []string `json:"types,omitempty"`
	Score        float64  `json:"score"`
	ProductFound bool     `json:"productFound"`
	ProductURL   string   `json:"productUrl,omitempty"`
}

// HasWebsite reports whether the business has a usable web presence.
func (b Business) HasWebsite() bool {
	return b.Website != ""
}

// WithScore returns a copy carrying the given small-business score.
func (b Business) WithScore(score float64) Business {
	b.Score = score
	return b
}

// WithProduct returns a copy marked as having the target product at url.
func (b Business) WithProduct(url string) Business {
	b.ProductFound = true
	b.ProductURL = url
	return b
}
