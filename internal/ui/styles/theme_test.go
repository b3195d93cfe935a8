package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/deadline/internal/models"
)

func TestUrgencyColor(t *testing.T) {
	assert.Equal(t, Current.Danger, UrgencyColor(models.UrgencyOverdue))
	assert.Equal(t, Current.Warning, UrgencyColor(models.UrgencyHigh))
	assert.Equal(t, Current.Caution, UrgencyColor(models.UrgencyMedium))
	assert.Equal(t, Current.Neutral, UrgencyColor(models.UrgencyLow))
	assert.Equal(t, Current.Neutral, UrgencyColor(""))
}

func TestContentWidth(t *testing.T) {
	assert.Equal(t, 40, ContentWidth(40))
	assert.Equal(t, MaxWidth, ContentWidth(200))
}
