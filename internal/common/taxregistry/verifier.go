// internal/common/taxregistry/verifier.go
package taxregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/database"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/redis/go-redis/v9"
)

// Status is the outcome of a registry verification attempt.
type Status string

const (
	// StatusVerified means the fiscal code exists and the registered name
	// matches the business name closely enough.
	StatusVerified Status = "verified"
	// StatusFailed means a fiscal code was found in the text but the
	// registry did not confirm it for this business.
	StatusFailed Status = "failed"
	// StatusUnavailable means a lookup was attempted but the registry
	// could not be reached. Never cached, so the next run retries.
	StatusUnavailable Status = "unavailable"
	// StatusUnknown means no fiscal code could be extracted, so
	// verification was never attempted.
	StatusUnknown Status = "unknown"
)

// nameMatchThreshold is the minimum similarity between the registered name
// and the business name for a lookup to count as verified.
const nameMatchThreshold = 0.6

// Lookuper is the registry call the verifier caches.
type Lookuper interface {
	Lookup(ctx context.Context, cui int64) (*Record, error)
}

// Verifier checks businesses against the tax registry, caching outcomes in
// Redis so repeat queries for popular shops skip the upstream call.
type Verifier struct {
	registry Lookuper
	cache    *database.RedisClient
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewVerifier(registry Lookuper, cache *database.RedisClient, cacheTTL time.Duration, log logger.Logger) *Verifier {
	return &Verifier{
		registry: registry,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

type cachedVerification struct {
	Status Status `json:"status"`
}

// Verify extracts a fiscal code from searchContext and checks it against the
// registry under businessName. Registry failures degrade to StatusUnavailable
// rather than failing the caller.
func (v *Verifier) Verify(ctx context.Context, businessName, searchContext string) Status {
	cui := ExtractCUI(searchContext)
	if cui == 0 {
		return StatusUnknown
	}

	cacheKey := fmt.Sprintf("taxregistry:%d", cui)
	if v.cache != nil {
		if raw, err := v.cache.Get(ctx, cacheKey); err == nil {
			var cached cachedVerification
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached.Status
			}
		} else if err != redis.Nil {
			v.logger.Warn("Tax registry cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	status := v.lookup(ctx, businessName, cui)

	// Only conclusive results are cached; an outage must be retried.
	if v.cache != nil && (status == StatusVerified || status == StatusFailed) {
		raw, _ := json.Marshal(cachedVerification{Status: status})
		if err := v.cache.Set(ctx, cacheKey, string(raw), v.cacheTTL); err != nil {
			v.logger.Warn("Tax registry cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return status
}

func (v *Verifier) lookup(ctx context.Context, businessName string, cui int64) Status {
	record, err := v.registry.Lookup(ctx, cui)
	if err != nil {
		v.logger.Warn("Tax registry lookup failed", map[string]interface{}{
			"cui":   cui,
			"error": err.Error(),
		})
		return StatusUnavailable
	}
	if record == nil {
		return StatusFailed
	}
	if NameSimilarity(businessName, record.Name) >= nameMatchThreshold {
		return StatusVerified
	}
	return StatusFailed
}
