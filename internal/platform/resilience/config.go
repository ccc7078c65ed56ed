package resilience

import "time"

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	RecoveryWindow   time.Duration
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		RecoveryWindow:   300 * time.Second,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.RecoveryWindow <= 0 {
		cfg.RecoveryWindow = defaults.RecoveryWindow
	}
	return cfg
}

// LimiterConfig bounds upstream usage for one process.
type LimiterConfig struct {
	DailyLimit     int
	PerMinuteLimit int
	MaxRetries     int
	Circuit        CircuitBreakerConfig
	// Location decides where "today" starts for the daily budget.
	Location *time.Location
	Clock    func() time.Time
}

func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		DailyLimit:     100,
		PerMinuteLimit: 10,
		MaxRetries:     3,
		Circuit:        DefaultCircuitBreakerConfig(),
		Location:       time.UTC,
	}
}

func NormalizeLimiterConfig(cfg LimiterConfig) LimiterConfig {
	defaults := DefaultLimiterConfig()
	if cfg.DailyLimit < 1 {
		cfg.DailyLimit = defaults.DailyLimit
	}
	if cfg.PerMinuteLimit < 1 {
		cfg.PerMinuteLimit = defaults.PerMinuteLimit
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.Location == nil {
		cfg.Location = defaults.Location
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	cfg.Circuit = NormalizeCircuitBreakerConfig(cfg.Circuit)
	return cfg
}
