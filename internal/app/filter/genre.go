package filter

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/domain/track"
)

// GenreConfig represents the configuration for GenreFilter.
// Genres are compared case-insensitively.
type GenreConfig struct {
	Include []string `yaml:"include" mapstructure:"include" validate:"dive,required"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude" validate:"dive,required"`
}

// GenreFilter hides tracks by genre.
type GenreFilter struct {
	include map[string]bool
	exclude map[string]bool
}

// NewGenreFilter creates a genre filter with the given include and exclude lists.
func NewGenreFilter(include, exclude []string) *GenreFilter {
	return &GenreFilter{
		include: toSet(include),
		exclude: toSet(exclude),
	}
}

func (f *GenreFilter) Name() string {
	return "genre_filter"
}

func (f *GenreFilter) Description() string {
	return "Shows only included genres and hides excluded genres"
}

func (f *GenreFilter) ReturnCodes() []string {
	return []string{"genre_excluded"}
}

func (f *GenreFilter) ValidateConfig(settings map[string]any) error {
	var config GenreConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.include = toSet(config.Include)
	f.exclude = toSet(config.Exclude)
	zlog.Info().Msgf("genre filter config: %+v", config)
	return nil
}

func (f *GenreFilter) Check(ctx context.Context, t track.Track) Result {
	genre := strings.ToLower(strings.TrimSpace(t.Genre))

	if f.exclude[genre] {
		return Reject("genre_excluded")
	}
	if len(f.include) > 0 && !f.include[genre] {
		return Reject("genre_excluded")
	}
	return Accept()
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

func init() {
	Register("genre_filter", func() Filter {
		return &GenreFilter{}
	})
}
