package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/optionset/metrics"
)

// ErrInvalidConfig is returned by [Config.Validate] and [New].
var ErrInvalidConfig = errors.New("invalid store config")

// Config defines how a [Store] lays out keys and retries updates.
type Config struct {
	// Prefix namespaces every key; records live at "<prefix>:rec:<id>" and the
	// record index at "<prefix>:ids".
	Prefix string
	// MaxRetries bounds optimistic transaction attempts per Update.
	MaxRetries int
	// MatchBatchSize is the number of records fetched per pipeline by Match.
	MatchBatchSize int
	Metrics        metrics.Config
}

// DefaultConfig returns the configuration used for a zero Config.
func DefaultConfig() Config {
	return Config{
		Prefix:         "os",
		MaxRetries:     4,
		MatchBatchSize: 256,
		Metrics: metrics.Config{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Prefix) == "" {
		return fmt.Errorf("%w: prefix must not be empty", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.Prefix, " \t\n{}") {
		return fmt.Errorf("%w: prefix must not contain whitespace or hash tags", ErrInvalidConfig)
	}
	if c.MaxRetries <= 0 || c.MaxRetries > 64 {
		return fmt.Errorf("%w: max retries must be in 1..64", ErrInvalidConfig)
	}
	if c.MatchBatchSize <= 0 || c.MatchBatchSize > 10000 {
		return fmt.Errorf("%w: match batch size must be in 1..10000", ErrInvalidConfig)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c == (Config{}) {
		return def
	}
	if c.Prefix == "" {
		c.Prefix = def.Prefix
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.MatchBatchSize == 0 {
		c.MatchBatchSize = def.MatchBatchSize
	}
	return c
}
