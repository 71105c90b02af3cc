// internal/agent/verify-product/models.go
package verifyproduct

import "github.com/RaDu88253/LocalCommerceAi/internal/models"

type Input struct {
	Business       models.Business `json:"business"`
	SearchKeywords string          `json:"searchKeywords"`
	MainProduct    string          `json:"mainProduct"`
}

type Output struct {
	// Business is a new value; ProductFound/ProductURL are set on it when a
	// page confirmed the product. The input business is never mutated.
	Business models.Business `json:"business"`
}
