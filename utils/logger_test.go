package utils

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, "  0", Percentage(0, 10))
	assert.Equal(t, " 33", Percentage(1, 3))
	assert.Equal(t, "100", Percentage(3, 3))
	assert.Equal(t, "  0", Percentage(1, 0))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, " 50% [1|2]", Progress(1, 2))
}

func TestResult(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	assert.Equal(t, "OK", Result(true))
	assert.Equal(t, "NOK", Result(false))
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	defer func() { Logger = prev }()

	SetOutput(&buf)
	LogWarn("ticket %s skipped", "42")

	assert.Contains(t, buf.String(), "ticket 42 skipped")
	assert.Contains(t, buf.String(), "warn")
}
