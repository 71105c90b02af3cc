// internal/agent/discover-businesses/handler.go
package discoverbusinesses

import (
	"context"
	"net/url"
	"strings"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/places"
)

const StageName = "discover-businesses"

// socialMediaDomains are pages that don't count as a business website.
var socialMediaDomains = map[string]struct{}{
	"facebook.com":  {},
	"instagram.com": {},
	"twitter.com":   {},
	"x.com":         {},
	"linkedin.com":  {},
	"tiktok.com":    {},
}

// Handler finds nearby clothing businesses not seen in earlier iterations.
type Handler struct {
	config *Config
	places places.Searcher
	logger logger.Logger
}

func NewHandler(config *Config, searcher places.Searcher, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		places: searcher,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Execute runs one discovery pass. A details-fetch failure for a single
// business is swallowed and that business keeps an absent website; a failure
// of the primary search returns an empty batch plus the error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	found, err := h.places.NearbySearch(ctx, input.Keywords, input.Location, input.RadiusMeters)
	if err != nil {
		h.logger.Warn("nearby search failed", map[string]interface{}{
			"radiusMeters": input.RadiusMeters,
			"error":        err.Error(),
		})
		return &Output{Businesses: nil}, err
	}

	output := &Output{}
	for _, business := range found {
		if _, seen := input.AlreadySeen[business.PlaceID]; seen {
			continue
		}

		details, err := h.places.PlaceDetails(ctx, business.PlaceID)
		if err != nil {
			h.logger.Warn("details fetch failed, keeping business without website", map[string]interface{}{
				"placeId": business.PlaceID,
				"error":   err.Error(),
			})
		} else if details.Website != "" && !isSocialMedia(details.Website) {
			business.Website = details.Website
		}

		output.Businesses = append(output.Businesses, business)
	}

	h.logger.Info("businesses discovered", map[string]interface{}{
		"radiusMeters": input.RadiusMeters,
		"total":        len(found),
		"new":          len(output.Businesses),
	})
	return output, nil
}

func isSocialMedia(website string) bool {
	parsed, err := url.Parse(website)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	_, social := socialMediaDomains[host]
	return social
}
