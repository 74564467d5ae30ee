package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playbar/internal/infra/config"
)

func TestSearch_AppliesFilters(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, search(cfg, "justin bieber", &out))
	assert.Contains(t, out.String(), "[4] Stay")
	assert.Contains(t, out.String(), "[6] Peaches")

	cfg.Filters = map[string]config.FilterConfig{
		"genre_filter": {Enabled: true, Settings: map[string]any{"exclude": []any{"Hip Hop"}}},
	}
	out.Reset()
	require.NoError(t, search(cfg, "justin bieber", &out))
	assert.NotContains(t, out.String(), "Stay")
	assert.Contains(t, out.String(), "[6] Peaches")

	// Every matching track filtered out, no albums or artists match.
	out.Reset()
	require.NoError(t, search(cfg, "industry", &out))
	assert.Contains(t, out.String(), `No results for "industry"`)
}

func TestListTracks_AppliesFilters(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Filters = map[string]config.FilterConfig{
		"duration_limit_filter": {Enabled: true, Settings: map[string]any{"max_minutes": 3}},
	}

	var out bytes.Buffer
	require.NoError(t, listTracks(cfg, &out))
	assert.Contains(t, out.String(), "[2] Watermelon Sugar")
	assert.NotContains(t, out.String(), "Industry Baby")
}
