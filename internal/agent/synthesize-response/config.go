// internal/agent/synthesize-response/config.go
package synthesizeresponse

import "time"

type Config struct {
	Timeout time.Duration
	TopN    int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
		TopN:    3,
	}
}
