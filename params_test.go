package tcs34725

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseGain(t *testing.T) {
	for _, gain := range []Gain{Gain1x, Gain4x, Gain16x, Gain60x} {
		parsed, err := ParseGain(gain.String())
		assert.NoError(t, err)
		assert.Equal(t, gain, parsed)
	}

	_, err := ParseGain("2x")
	assert.Error(t, err)
}

func TestParseIntegrationTime(t *testing.T) {
	times := []IntegrationTime{
		IntegrationTime2_4ms, IntegrationTime24ms, IntegrationTime50ms,
		IntegrationTime101ms, IntegrationTime154ms, IntegrationTime700ms,
	}
	for _, it := range times {
		parsed, err := ParseIntegrationTime(it.String())
		assert.NoError(t, err)
		assert.Equal(t, it, parsed)
	}

	_, err := ParseIntegrationTime("12ms")
	assert.Error(t, err)
}

func TestIntegrationTimeDuration(t *testing.T) {
	assert.Equal(t, 2400*time.Microsecond, IntegrationTime2_4ms.Duration())
	assert.Equal(t, 24*time.Millisecond, IntegrationTime24ms.Duration())
	assert.Equal(t, 614400*time.Microsecond, IntegrationTime700ms.Duration())
}

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()

	assert.Equal(t, DefaultAddress, params.Address)
	assert.Equal(t, Gain1x, params.Gain)
	assert.Equal(t, IntegrationTime2_4ms, params.IntegrationTime)
	assert.False(t, params.LoggingEnabled)
	assert.Equal(t, "tcs34725", params.LoggingTag)
}
