package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	classifyintent "github.com/RaDu88253/LocalCommerceAi/internal/agent/classify-intent"
	discoverbusinesses "github.com/RaDu88253/LocalCommerceAi/internal/agent/discover-businesses"
	extractquery "github.com/RaDu88253/LocalCommerceAi/internal/agent/extract-query"
	scorebusiness "github.com/RaDu88253/LocalCommerceAi/internal/agent/score-business"
	synthesizeresponse "github.com/RaDu88253/LocalCommerceAi/internal/agent/synthesize-response"
	verifyproduct "github.com/RaDu88253/LocalCommerceAi/internal/agent/verify-product"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

// --- Stage stubs ---

type stubClassifier struct {
	inDomain bool
	calls    int
}

func (s *stubClassifier) Execute(ctx context.Context, input *classifyintent.Input) (*classifyintent.Output, error) {
	s.calls++
	return &classifyintent.Output{InDomain: s.inDomain}, nil
}

type stubExtractor struct {
	parsed models.ParsedQuery
	calls  int
}

func (s *stubExtractor) Execute(ctx context.Context, input *extractquery.Input) (*extractquery.Output, error) {
	s.calls++
	return &extractquery.Output{Parsed: s.parsed}, nil
}

type stubDiscoverer struct {
	// batches[i] is returned for call i; later calls return the last batch.
	batches    [][]models.Business
	calls      int
	radiiSeen  []int
	seenCopies []map[string]struct{}
}

func (s *stubDiscoverer) Execute(ctx context.Context, input *discoverbusinesses.Input) (*discoverbusinesses.Output, error) {
	s.radiiSeen = append(s.radiiSeen, input.RadiusMeters)
	seen := make(map[string]struct{}, len(input.AlreadySeen))
	for id := range input.AlreadySeen {
		seen[id] = struct{}{}
	}
	s.seenCopies = append(s.seenCopies, seen)

	idx := s.calls
	s.calls++
	if idx >= len(s.batches) {
		if len(s.batches) == 0 {
			return &discoverbusinesses.Output{}, nil
		}
		idx = len(s.batches) - 1
	}

	var fresh []models.Business
	for _, b := range s.batches[idx] {
		if _, ok := input.AlreadySeen[b.PlaceID]; !ok {
			fresh = append(fresh, b)
		}
	}
	return &discoverbusinesses.Output{Businesses: fresh}, nil
}

type stubScorer struct{}

func (s *stubScorer) Execute(ctx context.Context, input *scorebusiness.Input) (*scorebusiness.Output, error) {
	// Deterministic: score by review count so ordering is observable.
	return &scorebusiness.Output{Business: input.Business.WithScore(float64(input.Business.ReviewCount))}, nil
}

type stubVerifier struct {
	confirmURLs map[string]string // PlaceID -> product URL
	calls       int
}

func (s *stubVerifier) Execute(ctx context.Context, input *verifyproduct.Input) (*verifyproduct.Output, error) {
	s.calls++
	if !input.Business.HasWebsite() {
		return &verifyproduct.Output{Business: input.Business}, nil
	}
	if url, ok := s.confirmURLs[input.Business.PlaceID]; ok {
		return &verifyproduct.Output{Business: input.Business.WithProduct(url)}, nil
	}
	return &verifyproduct.Output{Business: input.Business}, nil
}

type capturingSynthesizer struct {
	handler *synthesizeresponse.Handler
	input   *synthesizeresponse.Input
	calls   int
}

func (s *capturingSynthesizer) Execute(ctx context.Context, input *synthesizeresponse.Input) (*synthesizeresponse.Output, error) {
	s.calls++
	s.input = input
	if len(input.Verified) == 0 {
		return &synthesizeresponse.Output{Message: synthesizeresponse.ApologyMessage}, nil
	}
	var sb strings.Builder
	for _, b := range input.Verified {
		sb.WriteString(b.Name + " " + b.Address + " " + b.ProductURL + "\n")
	}
	return &synthesizeresponse.Output{Message: sb.String()}, nil
}

func newOrchestrator(
	t *testing.T,
	classifier *stubClassifier,
	extractor *stubExtractor,
	discoverer *stubDiscoverer,
	verifier *stubVerifier,
	synthesizer *capturingSynthesizer,
) *Orchestrator {
	return New(
		LoadConfig(),
		classifier, extractor, discoverer,
		&stubScorer{}, verifier, synthesizer,
		nil, nil,
		logger.NewTestLogger(t),
	)
}

func jacketInput() *Input {
	return &Input{Query: models.Query{
		Text:     "black leather jacket",
		Location: models.Location{Latitude: 44.4268, Longitude: 26.1025},
	}}
}

func jacketParsed() models.ParsedQuery {
	return models.ParsedQuery{
		MainProduct:    "jacket",
		Attributes:     []string{"black", "leather"},
		SearchKeywords: "jacket black leather",
	}
}

func business(id, name string, reviews int, website string) models.Business {
	return models.Business{
		PlaceID: id, Name: name, Address: "Strada " + name,
		ReviewCount: reviews, Website: website,
	}
}

func TestRun_JacketScenario(t *testing.T) {
	// 5 businesses, 2 with websites, product confirmed at exactly 1.
	discoverer := &stubDiscoverer{batches: [][]models.Business{{
		business("p1", "Boutique Aura", 40, "https://boutique-aura.ro"),
		business("p2", "Atelier Mara", 15, ""),
		business("p3", "Zara", 2400, "https://zara.com"),
		business("p4", "Second Hand Vintage", 8, ""),
		business("p5", "Mall Store", 900, ""),
	}}}
	verifier := &stubVerifier{confirmURLs: map[string]string{
		"p1": "https://boutique-aura.ro/jackets/black-leather",
	}}
	synthesizer := &capturingSynthesizer{}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, verifier, synthesizer,
	)

	out, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRecommended, out.Outcome)
	assert.Equal(t, 1, out.Verified)
	require.NotNil(t, synthesizer.input)
	require.Len(t, synthesizer.input.Verified, 1)
	assert.Equal(t, "Boutique Aura", synthesizer.input.Verified[0].Name)
	assert.Contains(t, out.Message, "Boutique Aura")
	assert.Contains(t, out.Message, "Strada Boutique Aura")
	assert.Contains(t, out.Message, "https://boutique-aura.ro/jackets/black-leather")
}

func TestRun_OffDomainRefusal(t *testing.T) {
	extractor := &stubExtractor{}
	discoverer := &stubDiscoverer{}
	verifier := &stubVerifier{}
	synthesizer := &capturingSynthesizer{}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: false},
		extractor, discoverer, verifier, synthesizer,
	)

	out, err := orch.Run(context.Background(), &Input{Query: models.Query{Text: "need a haircut"}})
	require.NoError(t, err)

	assert.Equal(t, RefusalMessage, out.Message)
	assert.Equal(t, OutcomeRefused, out.Outcome)
	assert.Zero(t, extractor.calls)
	assert.Zero(t, discoverer.calls)
	assert.Zero(t, verifier.calls)
	assert.Zero(t, synthesizer.calls)
}

func TestRun_EmptyAtAllRadiiExitsViaCeilingWithApology(t *testing.T) {
	discoverer := &stubDiscoverer{batches: [][]models.Business{{}}}
	synthesizer := &capturingSynthesizer{}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, &stubVerifier{}, synthesizer,
	)

	out, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)

	assert.Equal(t, []int{5000, 10000, 20000}, discoverer.radiiSeen)
	assert.Equal(t, OutcomeNoResults, out.Outcome)
	assert.Equal(t, synthesizeresponse.ApologyMessage, out.Message)
	assert.Empty(t, synthesizer.input.Verified)
}

func TestRun_RadiusSequenceNonDecreasingAndBounded(t *testing.T) {
	discoverer := &stubDiscoverer{batches: [][]models.Business{{}}}
	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, &stubVerifier{}, &capturingSynthesizer{},
	)

	_, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)

	require.NotEmpty(t, discoverer.radiiSeen)
	assert.LessOrEqual(t, len(discoverer.radiiSeen), 3)
	prev := 0
	for _, radius := range discoverer.radiiSeen {
		assert.GreaterOrEqual(t, radius, prev)
		assert.LessOrEqual(t, radius, 20000)
		prev = radius
	}
	assert.Equal(t, 5000, discoverer.radiiSeen[0])
}

func TestRun_StopsEarlyWhenTargetReached(t *testing.T) {
	discoverer := &stubDiscoverer{batches: [][]models.Business{{
		business("p1", "A", 10, "https://a.ro"),
		business("p2", "B", 20, "https://b.ro"),
		business("p3", "C", 30, "https://c.ro"),
	}}}
	verifier := &stubVerifier{confirmURLs: map[string]string{
		"p1": "https://a.ro/x", "p2": "https://b.ro/x", "p3": "https://c.ro/x",
	}}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, verifier, &capturingSynthesizer{},
	)

	out, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)

	assert.Equal(t, 1, discoverer.calls)
	assert.Equal(t, 3, out.Verified)
	assert.Equal(t, OutcomeRecommended, out.Outcome)
}

func TestRun_ProcessedIDsNeverRefetched(t *testing.T) {
	// The same batch comes back on every call; only the first iteration may
	// treat its members as new.
	batch := []models.Business{
		business("p1", "A", 10, "https://a.ro"),
		business("p2", "B", 20, ""),
	}
	discoverer := &stubDiscoverer{batches: [][]models.Business{batch, batch, batch}}
	verifier := &stubVerifier{}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, verifier, &capturingSynthesizer{},
	)

	_, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)

	require.Len(t, discoverer.seenCopies, 3)
	assert.Empty(t, discoverer.seenCopies[0])
	assert.Len(t, discoverer.seenCopies[1], 2)
	assert.Len(t, discoverer.seenCopies[2], 2)
	// Verification ran once per unique business.
	assert.Equal(t, 2, verifier.calls)
}

func TestRun_VerifiedOnlyContainsProductFound(t *testing.T) {
	discoverer := &stubDiscoverer{batches: [][]models.Business{{
		business("p1", "A", 10, "https://a.ro"),
		business("p2", "B", 20, "https://b.ro"),
		business("p3", "C", 5, ""),
	}}}
	verifier := &stubVerifier{confirmURLs: map[string]string{"p1": "https://a.ro/x"}}
	synthesizer := &capturingSynthesizer{}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, verifier, synthesizer,
	)

	_, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)

	for _, b := range synthesizer.input.Verified {
		assert.True(t, b.ProductFound)
	}
	require.Len(t, synthesizer.input.Verified, 1)
	assert.Equal(t, "p1", synthesizer.input.Verified[0].PlaceID)
}

func TestRun_WebsiteAbsentNeverVerifies(t *testing.T) {
	discoverer := &stubDiscoverer{batches: [][]models.Business{{
		business("p1", "A", 10, ""),
		business("p2", "B", 20, ""),
	}}}
	// Verifier would confirm if asked with a website; these have none.
	verifier := &stubVerifier{confirmURLs: map[string]string{
		"p1": "https://a.ro/x", "p2": "https://b.ro/x",
	}}
	synthesizer := &capturingSynthesizer{}

	orch := newOrchestrator(t,
		&stubClassifier{inDomain: true},
		&stubExtractor{parsed: jacketParsed()},
		discoverer, verifier, synthesizer,
	)

	out, err := orch.Run(context.Background(), jacketInput())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoResults, out.Outcome)
	assert.Empty(t, synthesizer.input.Verified)
}
