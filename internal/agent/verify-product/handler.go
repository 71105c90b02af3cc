// internal/agent/verify-product/handler.go
package verifyproduct

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/genai"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/webpage"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/websearch"
)

const StageName = "verify-product"

const judgmentPrompt = "You are checking whether a store page offers a " +
	"specific product. Answer with exactly one word. Answer \"yes\" if the " +
	"page clearly shows the specific product, \"category\" if it shows the " +
	"product's general category, \"no\" otherwise."

// Handler checks one business's website for the target product. Verification
// stops at the first confirming page rather than hunting for the best match.
type Handler struct {
	config  *Config
	search  websearch.Searcher
	fetcher webpage.Fetcher
	llm     genai.Completer
	logger  logger.Logger
}

func NewHandler(config *Config, search websearch.Searcher, fetcher webpage.Fetcher, llm genai.Completer, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		search:  search,
		fetcher: fetcher,
		llm:     llm,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Execute returns the business, verified or not, as a new value. Every
// upstream failure degrades to "not found" for this business; nothing here
// fails the pipeline.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	business := input.Business
	if !business.HasWebsite() {
		return &Output{Business: business}, nil
	}

	siteDomain := domainOf(business.Website)
	if siteDomain == "" {
		return &Output{Business: business}, nil
	}

	results, err := h.search.SearchSite(ctx, siteDomain, input.SearchKeywords)
	if err != nil {
		h.logger.Warn("site search failed", map[string]interface{}{
			"name":  business.Name,
			"error": err.Error(),
		})
		return &Output{Business: business}, nil
	}

	for _, result := range results {
		if result.URL == "" {
			continue
		}
		// Links pointing off the store's own domain are discarded without
		// comment; the search provider occasionally mixes in aggregators.
		if !strings.HasSuffix(domainOf(result.URL), siteDomain) {
			continue
		}

		if h.pageConfirms(ctx, result.URL, input.MainProduct) {
			h.logger.Info("product verified", map[string]interface{}{
				"name": business.Name,
				"url":  result.URL,
			})
			return &Output{Business: business.WithProduct(result.URL)}, nil
		}
	}

	return &Output{Business: business}, nil
}

func (h *Handler) pageConfirms(ctx context.Context, pageURL, mainProduct string) bool {
	content, err := h.fetcher.FetchText(ctx, pageURL)
	if err != nil || content == "" {
		return false
	}

	prompt := fmt.Sprintf("Product: %s\n\nPage content:\n%s", mainProduct, content)
	answer, err := h.llm.Complete(ctx, judgmentPrompt, prompt)
	if err != nil {
		h.logger.Warn("product judgment failed", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "category":
		return true
	}
	return false
}

func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
