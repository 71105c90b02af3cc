// internal/common/taxregistry/client.go
package taxregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	commonhttp "github.com/RaDu88253/LocalCommerceAi/internal/common/http"
)

// cuiPattern matches Romanian fiscal codes, with or without the RO prefix.
var cuiPattern = regexp.MustCompile(`(?:RO)?(\d{2,10})`)

// ExtractCUI pulls the first plausible fiscal code out of free text.
// Returns 0 when the text carries none.
func ExtractCUI(text string) int64 {
	match := cuiPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	cui, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0
	}
	return cui
}

// Record is one registered taxpayer as returned by the registry.
type Record struct {
	CUI  int64
	Name string
}

const lookupRetries = 2

// Client talks to the national tax-registry REST service. The registry is
// the least reliable of the upstream services, so calls go through the
// shared retrying transport.
type Client struct {
	baseURL    string
	httpClient *commonhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: commonhttp.NewRetryingClient(timeout, lookupRetries),
	}
}

type lookupRequest struct {
	CUI  int64  `json:"cui"`
	Data string `json:"data"`
}

type lookupResponse struct {
	Found []struct {
		DateGenerale struct {
			CUI      int64  `json:"cui"`
			Denumire string `json:"denumire"`
		} `json:"date_generale"`
	} `json:"found"`
}

// Lookup queries the registry for a single fiscal code. A nil record with a
// nil error means the code is not registered.
func (c *Client) Lookup(ctx context.Context, cui int64) (*Record, error) {
	reqBody := []lookupRequest{{
		CUI:  cui,
		Data: time.Now().Format("2006-01-02"),
	}}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.NewTaxRegistryUnavailableError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/tva", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, apperrors.NewTaxRegistryUnavailableError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithRetry(ctx, req, jsonData)
	if err != nil {
		return nil, apperrors.NewTaxRegistryUnavailableError(fmt.Errorf("failed to call registry: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTaxRegistryUnavailableError(fmt.Errorf("failed to read response: %w", err))
	}

	var lookupResp lookupResponse
	if err := json.Unmarshal(body, &lookupResp); err != nil {
		return nil, apperrors.NewTaxRegistryUnavailableError(fmt.Errorf("failed to parse response: %w", err))
	}

	if len(lookupResp.Found) == 0 {
		return nil, nil
	}

	found := lookupResp.Found[0]
	return &Record{
		CUI:  found.DateGenerale.CUI,
		Name: found.DateGenerale.Denumire,
	}, nil
}

// NameSimilarity returns a 0..1 ratio between two business names using
// character bigrams. Legal suffixes and case are normalized away first so
// "Zara" still matches "ZARA BUCURESTI SRL".
func NameSimilarity(a, b string) float64 {
	a = normalizeName(a)
	b = normalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 1
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	counts := make(map[string]int, len(bigramsA))
	for _, bg := range bigramsA {
		counts[bg]++
	}
	overlap := 0
	for _, bg := range bigramsB {
		if counts[bg] > 0 {
			counts[bg]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(bigramsA)+len(bigramsB))
}

var legalSuffixes = []string{"srl", "s.r.l.", "sa", "s.a.", "pfa"}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range legalSuffixes {
		name = strings.TrimSuffix(name, " "+suffix)
	}
	return strings.TrimSpace(name)
}

func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return []string{string(runes)}
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}
