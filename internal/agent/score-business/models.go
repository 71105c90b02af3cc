// internal/agent/score-business/models.go
package scorebusiness

import "github.com/RaDu88253/LocalCommerceAi/internal/models"

type Input struct {
	Business models.Business `json:"business"`
}

type Output struct {
	// Business is a new value carrying the computed score; the input is
	// never mutated.
	Business models.Business `json:"business"`
}
