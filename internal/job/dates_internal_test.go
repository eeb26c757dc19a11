package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearIgnored(t *testing.T) {
	d := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	assert.False(t, yearIgnored("tomorrow", d))
	assert.False(t, yearIgnored("March 3rd 2026", d))
	assert.True(t, yearIgnored("March 3rd 2025", d))
	assert.False(t, yearIgnored("between 2025 and 2026", d))
	assert.False(t, yearIgnored("at 20260303", d))
}
