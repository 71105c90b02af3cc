// internal/agent/orchestrator/models.go
package orchestrator

import "github.com/RaDu88253/LocalCommerceAi/internal/models"

// State is one node of the pipeline state machine.
type State string

const (
	StateInit       State = "init"
	StateClassify   State = "classify"
	StateRefusal    State = "refusal"
	StateExtract    State = "extract"
	StateFind       State = "find"
	StateSearch     State = "search"
	StateAccumulate State = "accumulate"
	StateSynthesize State = "synthesize"
	StateDone       State = "done"
)

// Outcome labels for run metrics and the audit log.
const (
	OutcomeRecommended = "recommended"
	OutcomeRefused     = "refused"
	OutcomeNoResults   = "no_results"
)

// PipelineState is the mutable record owned by exactly one run. Verified and
// ProcessedIDs only ever grow; RadiusMeters only ever increases.
type PipelineState struct {
	RunID        string
	Query        models.Query
	Parsed       models.ParsedQuery
	InDomain     bool
	Verified     []models.Business
	ProcessedIDs map[string]struct{}
	RadiusMeters int
	Messages     []models.Message

	// pending holds the current iteration's scored, not-yet-verified batch
	// between the find and search states.
	pending []models.Business
	// batchVerified holds this iteration's confirmations until accumulate
	// merges them.
	batchVerified []models.Business

	iterations int
	message    string
	outcome    string
}

type Input struct {
	Query models.Query `json:"query"`
}

type Output struct {
	RunID    string `json:"runId"`
	Message  string `json:"message"`
	Outcome  string `json:"outcome"`
	Verified int    `json:"verified"`
}

// runSummary is the audit document indexed after every completed run.
type runSummary struct {
	RunID         string  `json:"run_id"`
	Query         string  `json:"query"`
	Outcome       string  `json:"outcome"`
	VerifiedCount int     `json:"verified_count"`
	Iterations    int     `json:"iterations"`
	DurationMS    float64 `json:"duration_ms"`
}
