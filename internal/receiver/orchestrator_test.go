package receiver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramburn/gpsl1/internal/sampleio"
)

// fakeSource feeds a fixed number of zero-valued samples and then reports
// exhaustion, exercising the orchestrator's shutdown path without needing
// a fully realistic RF fixture.
type fakeSource struct {
	n       int
	emitted int
	rateHz  int
}

func (f *fakeSource) Next() (sampleio.Sample, int64, error) {
	if f.emitted >= f.n {
		return sampleio.Sample{}, 0, sampleio.ErrExhausted
	}
	idx := int64(f.emitted)
	f.emitted++
	return sampleio.Sample{}, idx, nil
}

func (f *fakeSource) SampleRateHz() int { return f.rateHz }
func (f *fakeSource) Close() error      { return nil }

func TestOrchestratorReportsExhaustionAndStops(t *testing.T) {
	cfg := Config{SampleRateHz: 2046000, SampleFormat: sampleio.FormatInt8IQ}
	src := &fakeSource{n: 4096, rateHz: 2046000}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	orc, err := New(cfg, src, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := orc.Events(ctx)

	require.NoError(t, orc.Start())

	var sawExhaustion bool
	deadline := time.After(2 * time.Second)
loop:
	for {
		select {
		case ev := <-events:
			if ev.Type == EventError && errors.Is(ev.Err, ErrSampleSourceExhausted) {
				sawExhaustion = true
				break loop
			}
		case <-deadline:
			break loop
		}
	}

	assert.True(t, sawExhaustion)
	assert.True(t, errors.Is(orc.Err(), ErrSampleSourceExhausted))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{SampleRateHz: 100}, &fakeSource{}, nil)
	assert.True(t, errors.Is(err, ErrConfigInvalid))
}
