// internal/models/query.go
package models

// Location is a geographic point in WGS84 coordinates.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Query is the immutable input to a single pipeline run.
type Query struct {
	Text     string   `json:"text"`
	Location Location `json:"location"`
}

// ParsedQuery is the structured form of a shopping query, derived once per
// run by the extraction stage and never mutated afterwards.
type ParsedQuery struct {
	MainProduct    string   `json:"mainProduct"`
	Attributes     []string `json:"attributes"`
	SearchKeywords string   `json:"searchKeywords"`
}

// Message is one entry in a pipeline run's conversation log.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
