// internal/agent/orchestrator/handler.go
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	classifyintent "github.com/RaDu88253/LocalCommerceAi/internal/agent/classify-intent"
	discoverbusinesses "github.com/RaDu88253/LocalCommerceAi/internal/agent/discover-businesses"
	extractquery "github.com/RaDu88253/LocalCommerceAi/internal/agent/extract-query"
	scorebusiness "github.com/RaDu88253/LocalCommerceAi/internal/agent/score-business"
	synthesizeresponse "github.com/RaDu88253/LocalCommerceAi/internal/agent/synthesize-response"
	verifyproduct "github.com/RaDu88253/LocalCommerceAi/internal/agent/verify-product"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/metrics"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/observability"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

// RefusalMessage is the fixed reply for queries outside clothing shopping.
const RefusalMessage = "I'm sorry, I can only help with finding clothing " +
	"items at small local stores. Please tell me what you'd like to buy!"

// Stage interfaces. Each is satisfied by the corresponding handler package;
// tests substitute deterministic stubs.
type IntentClassifier interface {
	Execute(ctx context.Context, input *classifyintent.Input) (*classifyintent.Output, error)
}

type QueryExtractor interface {
	Execute(ctx context.Context, input *extractquery.Input) (*extractquery.Output, error)
}

type BusinessDiscoverer interface {
	Execute(ctx context.Context, input *discoverbusinesses.Input) (*discoverbusinesses.Output, error)
}

type BusinessScorer interface {
	Execute(ctx context.Context, input *scorebusiness.Input) (*scorebusiness.Output, error)
}

type ProductVerifier interface {
	Execute(ctx context.Context, input *verifyproduct.Input) (*verifyproduct.Output, error)
}

type ResponseSynthesizer interface {
	Execute(ctx context.Context, input *synthesizeresponse.Input) (*synthesizeresponse.Output, error)
}

// RunIndexer receives the post-run audit document. Indexing is best-effort.
type RunIndexer interface {
	IndexDocument(ctx context.Context, index, docID string, doc interface{}) error
}

// Orchestrator drives one pipeline run through an explicit state machine:
//
//	init → classify → (refusal | extract) → find → search → accumulate
//	     → (find, on loop) | synthesize → done
//
// The loop guard after accumulate continues iff verified count is below the
// target and the radius is still within the ceiling, so a run performs at
// most log2(ceiling/floor)+1 iterations.
type Orchestrator struct {
	config      *Config
	classifier  IntentClassifier
	extractor   QueryExtractor
	discoverer  BusinessDiscoverer
	scorer      BusinessScorer
	verifier    ProductVerifier
	synthesizer ResponseSynthesizer
	indexer     RunIndexer
	obs         *observability.Observability
	logger      logger.Logger
}

func New(
	config *Config,
	classifier IntentClassifier,
	extractor QueryExtractor,
	discoverer BusinessDiscoverer,
	scorer BusinessScorer,
	verifier ProductVerifier,
	synthesizer ResponseSynthesizer,
	indexer RunIndexer,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:      config,
		classifier:  classifier,
		extractor:   extractor,
		discoverer:  discoverer,
		scorer:      scorer,
		verifier:    verifier,
		synthesizer: synthesizer,
		indexer:     indexer,
		obs:         obs,
		logger:      log,
	}
}

// Run executes the full pipeline for one query.
func (o *Orchestrator) Run(ctx context.Context, input *Input) (*Output, error) {
	started := time.Now()

	state := &PipelineState{
		RunID:        uuid.New().String(),
		Query:        input.Query,
		ProcessedIDs: make(map[string]struct{}),
		Messages: []models.Message{
			{Role: "user", Content: input.Query.Text},
		},
	}

	log := o.logger.With(map[string]interface{}{"runId": state.RunID})
	log.Info("pipeline run started", map[string]interface{}{
		"query": input.Query.Text,
	})

	current := StateInit
	for current != StateDone {
		next, err := o.step(ctx, state, current)
		if err != nil {
			metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("pipeline state %s: %w", current, err)
		}
		current = next
	}

	state.Messages = append(state.Messages, models.Message{Role: "assistant", Content: state.message})

	duration := time.Since(started)
	metrics.PipelineRunsTotal.WithLabelValues(state.outcome).Inc()
	if o.obs != nil {
		o.obs.RecordRun(ctx, state.outcome)
		o.obs.RecordRunDuration(ctx, duration, state.outcome)
	}
	o.indexRunSummary(ctx, state, duration)

	log.Info("pipeline run finished", map[string]interface{}{
		"outcome":    state.outcome,
		"verified":   len(state.Verified),
		"iterations": state.iterations,
		"durationMs": duration.Milliseconds(),
	})

	return &Output{
		RunID:    state.RunID,
		Message:  state.message,
		Outcome:  state.outcome,
		Verified: len(state.Verified),
	}, nil
}

// step is the transition function. Every state maps to exactly one successor
// (two for classify and accumulate, which branch).
func (o *Orchestrator) step(ctx context.Context, state *PipelineState, current State) (State, error) {
	defer o.observeStage(current)()

	switch current {
	case StateInit:
		state.Verified = nil
		state.ProcessedIDs = make(map[string]struct{})
		state.RadiusMeters = o.config.RadiusFloorMeters
		return StateClassify, nil

	case StateClassify:
		out, err := o.classifier.Execute(ctx, &classifyintent.Input{Query: state.Query.Text})
		if err != nil {
			// A dead model can't confirm purchase intent; the query is
			// treated like any other non-affirmative answer.
			o.logger.Warn("classification failed, treating query as out of domain", map[string]interface{}{
				"runId": state.RunID,
				"error": err.Error(),
			})
			return StateRefusal, nil
		}
		state.InDomain = out.InDomain
		if !state.InDomain {
			return StateRefusal, nil
		}
		return StateExtract, nil

	case StateRefusal:
		state.message = RefusalMessage
		state.outcome = OutcomeRefused
		return StateDone, nil

	case StateExtract:
		out, err := o.extractor.Execute(ctx, &extractquery.Input{Query: state.Query.Text})
		if err != nil {
			return StateDone, err
		}
		state.Parsed = out.Parsed
		return StateFind, nil

	case StateFind:
		state.iterations++
		discovered, err := o.discoverer.Execute(ctx, &discoverbusinesses.Input{
			Keywords:     state.Parsed.SearchKeywords,
			Location:     state.Query.Location,
			RadiusMeters: state.RadiusMeters,
			AlreadySeen:  state.ProcessedIDs,
		})
		if err != nil {
			// Discovery failures surface as an empty batch; the radius loop
			// still advances and may succeed on a later iteration.
			metrics.UpstreamFailures.WithLabelValues("places").Inc()
			state.pending = nil
			return StateSearch, nil
		}
		metrics.BusinessesDiscovered.Add(float64(len(discovered.Businesses)))
		state.pending = o.scoreBatch(ctx, discovered.Businesses)
		return StateSearch, nil

	case StateSearch:
		state.batchVerified = state.batchVerified[:0]
		for _, business := range state.pending {
			out, err := o.verifier.Execute(ctx, &verifyproduct.Input{
				Business:       business,
				SearchKeywords: state.Parsed.SearchKeywords,
				MainProduct:    state.Parsed.MainProduct,
			})
			if err != nil {
				continue
			}
			if out.Business.ProductFound {
				state.batchVerified = append(state.batchVerified, out.Business)
				metrics.BusinessesVerified.Inc()
			}
		}
		return StateAccumulate, nil

	case StateAccumulate:
		state.Verified = append(state.Verified, state.batchVerified...)
		for _, business := range state.pending {
			state.ProcessedIDs[business.PlaceID] = struct{}{}
		}
		state.pending = nil
		state.batchVerified = nil

		if len(state.Verified) < o.config.TargetVerified && state.RadiusMeters*2 <= o.config.RadiusCeilingMeters {
			state.RadiusMeters *= 2
			metrics.RadiusExpansionsTotal.Inc()
			o.logger.Info("widening search radius", map[string]interface{}{
				"runId":        state.RunID,
				"radiusMeters": state.RadiusMeters,
				"verified":     len(state.Verified),
			})
			return StateFind, nil
		}
		return StateSynthesize, nil

	case StateSynthesize:
		out, err := o.synthesizer.Execute(ctx, &synthesizeresponse.Input{
			Query:    state.Query.Text,
			Verified: state.Verified,
		})
		if err != nil {
			return StateDone, err
		}
		state.message = out.Message
		if len(state.Verified) == 0 {
			state.outcome = OutcomeNoResults
		} else {
			state.outcome = OutcomeRecommended
		}
		return StateDone, nil
	}

	return StateDone, fmt.Errorf("unknown state %q", current)
}

// scoreBatch scores each newly discovered business and returns the batch in
// ascending score order so the most local candidates are verified first.
func (o *Orchestrator) scoreBatch(ctx context.Context, businesses []models.Business) []models.Business {
	scored := make([]models.Business, 0, len(businesses))
	for _, business := range businesses {
		out, err := o.scorer.Execute(ctx, &scorebusiness.Input{Business: business})
		if err != nil {
			scored = append(scored, business)
			continue
		}
		scored = append(scored, out.Business)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})
	return scored
}

func (o *Orchestrator) observeStage(state State) func() {
	started := time.Now()
	return func() {
		metrics.PipelineStageDuration.WithLabelValues(string(state)).Observe(time.Since(started).Seconds())
	}
}

func (o *Orchestrator) indexRunSummary(ctx context.Context, state *PipelineState, duration time.Duration) {
	if o.indexer == nil {
		return
	}
	summary := runSummary{
		RunID:         state.RunID,
		Query:         state.Query.Text,
		Outcome:       state.outcome,
		VerifiedCount: len(state.Verified),
		Iterations:    state.iterations,
		DurationMS:    float64(duration.Milliseconds()),
	}
	if err := o.indexer.IndexDocument(ctx, o.config.RunIndex, state.RunID, summary); err != nil {
		o.logger.Warn("run summary indexing failed", map[string]interface{}{
			"runId": state.RunID,
			"error": err.Error(),
		})
	}
}
