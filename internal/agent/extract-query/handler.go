// internal/agent/extract-query/handler.go
package extractquery

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/genai"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/validation"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

const StageName = "extract-query"

const systemPrompt = "You are an expert at parsing shopping queries. Extract " +
	"the core clothing item (singular noun) and its descriptive attributes " +
	"(color, material, style). Do not infer a location. Respond with JSON " +
	`only, in this exact shape: {"item": string, "attributes": [string]}.`

// outputSchema guards the model's structured output. Anything that doesn't
// conform takes the raw-query fallback path.
const outputSchema = `{
	"type": "object",
	"required": ["item"],
	"properties": {
		"item": {"type": "string", "minLength": 1},
		"attributes": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

// Handler turns a free-text query into a ParsedQuery. Extraction never fails
// the pipeline: malformed model output degrades to the raw query.
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

type extractedQuery struct {
	Item       string   `json:"item"`
	Attributes []string `json:"attributes"`
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	raw, err := h.llm.Complete(ctx, systemPrompt, "The user wants to buy: "+input.Query)
	if err != nil {
		h.logger.Warn("extraction call failed, using raw query", map[string]interface{}{
			"error": err.Error(),
		})
		return h.fallback(input), nil
	}

	parsed, ok := h.parse(raw)
	if !ok {
		return h.fallback(input), nil
	}

	keywords := parsed.Item
	if len(parsed.Attributes) > 0 {
		keywords = parsed.Item + " " + strings.Join(parsed.Attributes, " ")
	}

	h.logger.Info("query extracted", map[string]interface{}{
		"item":           parsed.Item,
		"attributeCount": len(parsed.Attributes),
	})

	return &Output{
		Parsed: models.ParsedQuery{
			MainProduct:    parsed.Item,
			Attributes:     parsed.Attributes,
			SearchKeywords: keywords,
		},
	}, nil
}

func (h *Handler) parse(raw string) (*extractedQuery, bool) {
	raw = stripCodeFence(raw)

	result, err := validation.ValidateJSON(raw, outputSchema)
	if err != nil || !result.Valid {
		h.logger.Warn("extraction output failed schema validation", map[string]interface{}{
			"output": raw,
		})
		return nil, false
	}

	var parsed extractedQuery
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	return &parsed, true
}

func (h *Handler) fallback(input *Input) *Output {
	return &Output{
		Parsed: models.ParsedQuery{
			MainProduct:    input.Query,
			Attributes:     []string{},
			SearchKeywords: input.Query,
		},
		FellBack: true,
	}
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// answer in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
