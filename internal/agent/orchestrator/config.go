// internal/agent/orchestrator/config.go
package orchestrator

type Config struct {
	RadiusFloorMeters   int
	RadiusCeilingMeters int
	TargetVerified      int
	RunIndex            string
}

func LoadConfig() *Config {
	return &Config{
		RadiusFloorMeters:   5000,
		RadiusCeilingMeters: 20000,
		TargetVerified:      3,
		RunIndex:            "assistant-runs",
	}
}
