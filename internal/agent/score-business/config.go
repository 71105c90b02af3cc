// internal/agent/score-business/config.go
package scorebusiness

import "time"

// Config carries the scoring knobs. The weights are empirically chosen
// configuration, tuned for the Romanian retail landscape.
type Config struct {
	Timeout           time.Duration
	CorporateKeywords []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		CorporateKeywords: []string{
			"locații", "franciză", "investitori", "acțiuni", "carieră", "internațional",
		},
	}
}
