package due

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-12 14:30", time.Date(2026, 3, 12, 14, 30, 0, 0, time.UTC)},
		{"2026-03-12", time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)},
		{" 2026-03-12 ", time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)},
		{"tomorrow", now.Add(24 * time.Hour)},
		{"Tomorrow", now.Add(24 * time.Hour)},
		{"in 3 days", now.Add(3 * 24 * time.Hour)},
		{"in 2 hours", now.Add(2 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, now)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse("   ", now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"whenever", "+3d", "2026-13-01", "pay rent tomorrow"} {
		_, err := Parse(in, now)
		assert.Error(t, err, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))

	at := time.Date(2026, 3, 12, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-03-12 14:30", Format(&at))
}
