// internal/agent/classify-intent/models.go
package classifyintent

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	InDomain bool `json:"inDomain"`
}
