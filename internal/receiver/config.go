package receiver

import (
	"fmt"

	"github.com/bramburn/gpsl1/internal/sampleio"
)

// Config is the enumerated configuration surface of spec.md §6. Zero
// values for optional fields are replaced by WithDefaults.
type Config struct {
	SampleRateHz       int
	SampleFormat       sampleio.Format
	CenterFrequencyHz  float64

	AcquisitionDopplerRangeHz float64
	AcquisitionDopplerStepHz  float64
	AcquisitionThresholdRatio float64

	MaxConcurrentTrackedSVs int

	PLLBandwidthHz float64
	DLLBandwidthHz float64
}

// WithDefaults fills unset optional fields per spec.md §6.
func (c Config) WithDefaults() Config {
	if c.CenterFrequencyHz == 0 {
		c.CenterFrequencyHz = 1.57542e9
	}
	// AcquisitionDopplerRangeHz is deliberately left unfilled here: the
	// acquire package itself widens to +-10kHz while no fix exists yet
	// (spec.md §4.2) and narrows to +-5kHz afterward. Setting a default
	// here would mask that cold/warm distinction.
	if c.AcquisitionDopplerStepHz == 0 {
		c.AcquisitionDopplerStepHz = 200
	}
	if c.AcquisitionThresholdRatio == 0 {
		c.AcquisitionThresholdRatio = 2.5
	}
	if c.MaxConcurrentTrackedSVs == 0 {
		c.MaxConcurrentTrackedSVs = 10
	}
	if c.PLLBandwidthHz == 0 {
		c.PLLBandwidthHz = 10
	}
	if c.DLLBandwidthHz == 0 {
		c.DLLBandwidthHz = 1
	}
	return c
}

// Validate reports ErrConfigInvalid-wrapped errors for anything spec.md §6
// requires but this Config violates.
func (c Config) Validate() error {
	if c.SampleRateHz < 2046000 {
		return fmt.Errorf("%w: sample_rate_hz must be >= 2.046e6, got %d", ErrConfigInvalid, c.SampleRateHz)
	}
	switch c.SampleFormat {
	case sampleio.FormatInt8IQ, sampleio.FormatUint8IQ, sampleio.FormatFloat32IQ:
	default:
		return fmt.Errorf("%w: unsupported sample_format %v", ErrConfigInvalid, c.SampleFormat)
	}
	if c.MaxConcurrentTrackedSVs < 1 {
		return fmt.Errorf("%w: max_concurrent_tracked_svs must be >= 1, got %d", ErrConfigInvalid, c.MaxConcurrentTrackedSVs)
	}
	return nil
}
