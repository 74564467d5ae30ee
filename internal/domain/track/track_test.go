package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Matches(t *testing.T) {
	trk := Track{
		ID:     "1",
		Title:  "Blinding Lights",
		Artist: "The Weeknd",
		Album:  "After Hours",
	}

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{name: "title match", query: "blinding", expected: true},
		{name: "artist match", query: "WEEKND", expected: true},
		{name: "album match", query: "after h", expected: true},
		{name: "surrounding spaces ignored", query: "  lights ", expected: true},
		{name: "no match", query: "sour", expected: false},
		{name: "empty query", query: "", expected: false},
		{name: "blank query", query: "   ", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trk.Matches(tt.query))
		})
	}
}

func TestIndexOf(t *testing.T) {
	tracks := []Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Equal(t, 0, IndexOf(tracks, "a"))
	assert.Equal(t, 2, IndexOf(tracks, "c"))
	assert.Equal(t, -1, IndexOf(tracks, "z"))
	assert.Equal(t, -1, IndexOf(nil, "a"))
}

func TestIDsAndTotalDuration(t *testing.T) {
	tracks := []Track{
		{ID: "1", Duration: 200 * time.Second},
		{ID: "2", Duration: 174 * time.Second},
		{ID: "3", Duration: 178 * time.Second},
	}

	assert.Equal(t, []string{"1", "2", "3"}, IDs(tracks))
	assert.Equal(t, 552*time.Second, TotalDuration(tracks))
	assert.Equal(t, []string{}, IDs(nil))
	assert.Equal(t, time.Duration(0), TotalDuration(nil))
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{200 * time.Second, "3:20"},
		{61*time.Second + 900*time.Millisecond, "1:01"},
		{-3 * time.Second, "0:00"},
		{3600 * time.Second, "60:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(tt.in))
		})
	}
}
