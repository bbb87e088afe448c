package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/images"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// options configures a reconciler.
type options struct {
	threshold float64
	strategy  matcher.Strategy
	canonical []string
	assets    images.Assets
	policy    images.Policy
	logger    *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		threshold: matcher.DefaultThreshold,
		strategy:  matcher.StrategyBest,
		assets:    images.None,
		policy:    images.DefaultPolicy(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithThreshold sets the minimum name similarity for a match.
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return &errors.ValidationError{
				Field:   "threshold",
				Value:   threshold,
				Message: "must be in (0, 1]",
			}
		}
		o.threshold = threshold
		return nil
	}
}

// WithStrategy sets how a scraped name is resolved among several candidates.
func WithStrategy(strategy matcher.Strategy) Option {
	return func(o *options) error {
		if strategy != matcher.StrategyFirst && strategy != matcher.StrategyBest {
			return &errors.ValidationError{
				Field:   "strategy",
				Value:   strategy,
				Message: "unknown match strategy",
			}
		}
		o.strategy = strategy
		return nil
	}
}

// WithCanonicalOrder sets the category keys that are emitted first, in order.
func WithCanonicalOrder(keys ...string) Option {
	return func(o *options) error {
		o.canonical = append([]string(nil), keys...)
		return nil
	}
}

// WithAssets sets the image existence check.
func WithAssets(assets images.Assets) Option {
	return func(o *options) error {
		if assets == nil {
			return &errors.ValidationError{
				Field:   "assets",
				Message: "cannot be nil",
			}
		}
		o.assets = assets
		return nil
	}
}

// WithImagePolicy sets how image paths are derived.
func WithImagePolicy(policy images.Policy) Option {
	return func(o *options) error {
		o.policy = policy
		return nil
	}
}

// WithLogger sets the logger; by default the context logger is used.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
