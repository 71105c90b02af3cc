// internal/agent/classify-intent/handler.go
package classifyintent

import (
	"context"
	"strings"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/genai"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
)

const StageName = "classify-intent"

const systemPrompt = "You are a strict classifier for a local clothing " +
	"shopping assistant. Answer with a single word, yes or no: does the " +
	"user's message express intent to buy a clothing item?"

// Handler makes one yes/no purchase-intent judgment. No retries; any
// non-affirmative answer routes the query out of domain.
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
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	answer, err := h.llm.Complete(ctx, systemPrompt, input.Query)
	if err != nil {
		return nil, err
	}

	inDomain := strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes")

	h.logger.Info("query classified", map[string]interface{}{
		"inDomain": inDomain,
	})

	return &Output{InDomain: inDomain}, nil
}
