// internal/agent/score-business/handler.go
package scorebusiness

import (
	"context"
	"fmt"
	"strings"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/taxregistry"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/websearch"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

const StageName = "score-business"

// Verifier is the tax-registry check the scorer consults.
type Verifier interface {
	Verify(ctx context.Context, businessName, searchContext string) taxregistry.Status
}

// Handler computes the small-business likelihood score for one candidate.
// Lower is more local. Search failures degrade to empty context; they never
// abort scoring.
type Handler struct {
	config   *Config
	search   websearch.Searcher
	verifier Verifier
	logger   logger.Logger
}

func NewHandler(config *Config, search websearch.Searcher, verifier Verifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		search:   search,
		verifier: verifier,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	contextText := h.gatherScaleContext(ctx, input.Business.Name)
	registryContext := h.gatherRegistryContext(ctx, input.Business.Name)
	status := h.verifier.Verify(ctx, input.Business.Name, registryContext)

	score := h.Score(input.Business, contextText, status)

	h.logger.Info("business scored", map[string]interface{}{
		"name":           input.Business.Name,
		"score":          score,
		"registryStatus": string(status),
	})

	return &Output{Business: input.Business.WithScore(score)}, nil
}

// Score is the deterministic heuristic. Exposed separately from Execute so
// the weights can be tested without any upstream calls.
func (h *Handler) Score(business models.Business, contextText string, status taxregistry.Status) float64 {
	reviews := business.ReviewCount
	if reviews > 500 {
		reviews = 500
	}
	score := float64(reviews) / 50

	contextLower := strings.ToLower(contextText)
	for _, keyword := range h.config.CorporateKeywords {
		if strings.Contains(contextLower, keyword) {
			score += 5
			break
		}
	}

	switch status {
	case taxregistry.StatusVerified:
		score -= 10
	case taxregistry.StatusFailed, taxregistry.StatusUnavailable:
		score += 2
	}

	for _, tag := range business.Types {
		switch tag {
		case "boutique":
			score -= 2
		case "department_store":
			score += 5
		}
	}

	return score
}

// gatherScaleContext searches for signals of chain or corporate structure.
func (h *Handler) gatherScaleContext(ctx context.Context, name string) string {
	query := fmt.Sprintf("%q locații magazine OR \"despre noi\" OR \"relații cu investitorii\"", name)
	results, err := h.search.Search(ctx, query)
	if err != nil {
		h.logger.Warn("scale check search failed", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return ""
	}
	return joinContents(results)
}

// gatherRegistryContext searches for the business's fiscal code.
func (h *Handler) gatherRegistryContext(ctx context.Context, name string) string {
	results, err := h.search.Search(ctx, fmt.Sprintf("CUI firma %q", name))
	if err != nil {
		h.logger.Warn("fiscal code search failed", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return ""
	}
	return joinContents(results)
}

func joinContents(results []websearch.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, "\n")
}
