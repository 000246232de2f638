package receiver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bramburn/gpsl1/internal/sampleio"
)

func TestConfigValidateRejectsLowSampleRate(t *testing.T) {
	cfg := Config{SampleRateHz: 1000000, SampleFormat: sampleio.FormatInt8IQ}.WithDefaults()
	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrConfigInvalid))
}

func TestConfigValidateRejectsBadFormat(t *testing.T) {
	cfg := Config{SampleRateHz: 2046000, SampleFormat: sampleio.Format(99)}.WithDefaults()
	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrConfigInvalid))
}

func TestConfigWithDefaultsFillsZeroFields(t *testing.T) {
	cfg := Config{SampleRateHz: 2046000, SampleFormat: sampleio.FormatInt8IQ}.WithDefaults()
	assert.Equal(t, 1.57542e9, cfg.CenterFrequencyHz)
	assert.Equal(t, 10, cfg.MaxConcurrentTrackedSVs)
	assert.Equal(t, 10.0, cfg.PLLBandwidthHz)
	assert.Equal(t, 1.0, cfg.DLLBandwidthHz)

	err := cfg.Validate()
	assert.NoError(t, err)
}
