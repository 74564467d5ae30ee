package filter

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/domain/track"
)

// Return codes of DurationLimitFilter.
const (
	CodeTooShort = "track_too_short"
	CodeTooLong  = "track_too_long"
)

// DurationLimitConfig represents the configuration for DurationLimitFilter.
// A zero bound means no limit on that side.
type DurationLimitConfig struct {
	MinMinutes float64 `yaml:"min_minutes" mapstructure:"min_minutes" validate:"gte=0"`
	MaxMinutes float64 `yaml:"max_minutes" mapstructure:"max_minutes" validate:"gte=0"`
}

// DurationLimitFilter hides tracks outside a duration range.
type DurationLimitFilter struct {
	min time.Duration
	max time.Duration // 0 = unbounded
}

// NewDurationLimitFilter creates a duration filter. Zero bounds are open.
func NewDurationLimitFilter(min, max time.Duration) *DurationLimitFilter {
	return &DurationLimitFilter{min: min, max: max}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Hides tracks shorter or longer than the configured minutes"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{CodeTooShort, CodeTooLong}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	if config.MaxMinutes > 0 && config.MinMinutes > config.MaxMinutes {
		return errors.Newf("min_minutes (%v) is greater than max_minutes (%v)", config.MinMinutes, config.MaxMinutes)
	}

	f.min = minutes(config.MinMinutes)
	f.max = minutes(config.MaxMinutes)
	zlog.Info().Msgf("duration limit filter config: min=%v max=%v", f.min, f.max)
	return nil
}

func (f *DurationLimitFilter) Check(ctx context.Context, t track.Track) Result {
	switch {
	case t.Duration < f.min:
		return Reject(CodeTooShort)
	case f.max > 0 && t.Duration > f.max:
		return Reject(CodeTooLong)
	default:
		return Accept()
	}
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return &DurationLimitFilter{}
	})
}
