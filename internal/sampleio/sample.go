// Package sampleio provides the raw complex-baseband sample sources the
// receiver pipeline consumes: replay from a recorded IQ file, or a
// network-delivered live IQ stream. Both are external collaborators in the
// sense of spec.md (no SDR device driver lives here), but something has to
// turn bytes into Sample values for the Acquirer/Tracker to read.
package sampleio

import "fmt"

// Sample is one complex baseband value.
type Sample struct {
	I float64
	Q float64
}

// Format names the on-disk/on-wire encoding of interleaved I/Q samples.
type Format int

const (
	// FormatInt8IQ is signed 8-bit interleaved I,Q (2 bytes/sample).
	FormatInt8IQ Format = iota
	// FormatUint8IQ is unsigned 8-bit interleaved I,Q, offset-binary around 127.5.
	FormatUint8IQ
	// FormatFloat32IQ is IEEE-754 float32 interleaved I,Q (8 bytes/sample).
	FormatFloat32IQ
)

// BytesPerSample returns the on-wire size of one complex sample in f.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatInt8IQ, FormatUint8IQ:
		return 2
	case FormatFloat32IQ:
		return 8
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case FormatInt8IQ:
		return "int8_iq"
	case FormatUint8IQ:
		return "uint8_iq"
	case FormatFloat32IQ:
		return "float32_iq"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps the configuration string form of a sample format (as
// spec.md §6 enumerates) to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "int8_iq":
		return FormatInt8IQ, nil
	case "uint8_iq":
		return FormatUint8IQ, nil
	case "float32_iq":
		return FormatFloat32IQ, nil
	default:
		return 0, fmt.Errorf("sampleio: unknown sample format %q", s)
	}
}
