package sampleio

import (
	"errors"
	"math"
)

// ErrExhausted is returned by Source.Next when there are no more samples —
// the SampleSourceExhausted condition of spec.md §7.
var ErrExhausted = errors.New("sampleio: sample source exhausted")

// Source is the consumer contract of spec.md §6: a lazy sequence of complex
// baseband samples of known sample rate, delivered in strict time order with
// an implicit integer index.
type Source interface {
	// Next returns the next sample and its index n (samples are delivered
	// with strictly increasing n starting at 0).
	Next() (sample Sample, index int64, err error)

	// SampleRateHz is the fixed sample rate Fs this source was opened with.
	SampleRateHz() int

	// Close releases resources held by the source.
	Close() error
}

// decode reads one complex sample out of raw, which must be exactly
// f.BytesPerSample() bytes long, in little-endian byte order.
func decode(f Format, raw []byte) Sample {
	switch f {
	case FormatInt8IQ:
		return Sample{I: float64(int8(raw[0])), Q: float64(int8(raw[1]))}
	case FormatUint8IQ:
		return Sample{I: float64(raw[0]) - 127.5, Q: float64(raw[1]) - 127.5}
	case FormatFloat32IQ:
		return Sample{I: float64(decodeFloat32(raw[0:4])), Q: float64(decodeFloat32(raw[4:8]))}
	default:
		return Sample{}
	}
}

func decodeFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
