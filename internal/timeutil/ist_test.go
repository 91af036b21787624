package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatIST(t *testing.T) {
	utc := time.Date(2024, 3, 1, 18, 45, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-02", FormatIST(utc, DateLayout))
	assert.Equal(t, "02 Mar 2024, 12:15 AM", FormatIST(utc, DisplayLayout))
}

func TestFixed(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := Fixed(at)
	assert.True(t, clock().Equal(at))
}
