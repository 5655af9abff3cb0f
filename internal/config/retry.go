package config

import "git.home.luguber.info/inful/companion/internal/foundation/normalization"

// RetryBackoffMode selects how retry delays grow.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"constant":    RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
	"exp":         RetryBackoffExponential,
}, RetryBackoffLinear)

func NormalizeRetryBackoffMode(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RetryConfig controls retries of opening the store, e.g. while a NATS
// server is still starting.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff" toml:"backoff"`
	Initial    Duration         `yaml:"initial" toml:"initial"`
	Max        Duration         `yaml:"max" toml:"max"`
	MaxRetries int              `yaml:"max_retries" toml:"max_retries"`
}
