// internal/agent/extract-query/models.go
package extractquery

import "github.com/RaDu88253/LocalCommerceAi/internal/models"

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Parsed models.ParsedQuery `json:"parsed"`
	// FellBack is true when the structured extraction was unusable and the
	// raw query was used instead.
	FellBack bool `json:"fellBack"`
}
