// internal/agent/synthesize-response/models.go
package synthesizeresponse

import "github.com/RaDu88253/LocalCommerceAi/internal/models"

type Input struct {
	Query    string            `json:"query"`
	Verified []models.Business `json:"verified"`
}

type Output struct {
	Message string `json:"message"`
}
