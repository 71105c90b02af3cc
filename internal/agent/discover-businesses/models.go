// internal/agent/discover-businesses/models.go
package discoverbusinesses

import "github.com/RaDu88253/LocalCommerceAi/internal/models"

type Input struct {
	Keywords     string              `json:"keywords"`
	Location     models.Location     `json:"location"`
	RadiusMeters int                 `json:"radiusMeters"`
	AlreadySeen  map[string]struct{} `json:"-"`
}

type Output struct {
	// Businesses contains only identifiers absent from AlreadySeen. Merging
	// them back into the seen set is the caller's job.
	Businesses []models.Business `json:"businesses"`
}
