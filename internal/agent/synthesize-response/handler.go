// internal/agent/synthesize-response/handler.go
package synthesizeresponse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/genai"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

const StageName = "synthesize-response"

// ApologyMessage is the fixed no-results reply. It never goes through the
// language model.
const ApologyMessage = "I'm sorry, I couldn't find any matching items in " +
	"small local stores near you. You could try broadening your search!"

const systemPrompt = "You are a friendly local shopping assistant. Using " +
	"only the store list provided, write a short recommendation for the " +
	"user. Keep every store name, address and link exactly as given. Do not " +
	"invent stores or products."

// Handler formats the verified businesses into the final user-facing reply.
type Handler struct {
	config *Config
	llm    genai.Completer
	logger logger.Logger
}

func NewHandler(config *Config, llm genai.Completer, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		llm:    llm,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Verified) == 0 {
		return &Output{Message: ApologyMessage}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	top := topByScore(input.Verified, h.config.TopN)
	summary := formatBusinesses(top)

	prompt := fmt.Sprintf("The user asked: %s\n\nVerified local stores:\n%s", input.Query, summary)
	message, err := h.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		// The data is already assembled; a phrasing failure should not cost
		// the user their results.
		h.logger.Warn("synthesis call failed, returning plain summary", map[string]interface{}{
			"error": err.Error(),
		})
		message = "I found a few great options for you from local businesses! Here they are:\n\n" + summary
	}

	h.logger.Info("response synthesized", map[string]interface{}{
		"storeCount": len(top),
	})
	return &Output{Message: message}, nil
}

// topByScore returns the n lowest-scoring businesses, lowest first, without
// disturbing the caller's slice.
func topByScore(businesses []models.Business, n int) []models.Business {
	sorted := make([]models.Business, len(businesses))
	copy(sorted, businesses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func formatBusinesses(businesses []models.Business) string {
	var sb strings.Builder
	for _, b := range businesses {
		link := b.ProductURL
		if link == "" {
			link = "check in store"
		}
		fmt.Fprintf(&sb, "- **Store:** %s\n  **Address:** %s\n  **Link:** %s\n", b.Name, b.Address, link)
	}
	return sb.String()
}
