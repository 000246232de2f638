package sampleio

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// TCPSource reads a live interleaved I/Q stream from a TCP server, the
// common transport several SDR front ends (e.g. rtl_tcp-style servers) use
// to expose a "live" capture without this receiver owning a device driver.
type TCPSource struct {
	mu         sync.Mutex
	conn       net.Conn
	r          *bufio.Reader
	format     Format
	sampleRate int
	index      int64
}

// DialTCP connects to addr (host:port) and returns a Source decoding
// format-encoded samples captured at sampleRateHz.
func DialTCP(addr string, format Format, sampleRateHz int, timeout time.Duration) (*TCPSource, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("sampleio: dial %s: %w", addr, err)
	}
	return &TCPSource{
		conn:       conn,
		r:          bufio.NewReaderSize(conn, 1<<20),
		format:     format,
		sampleRate: sampleRateHz,
	}, nil
}

func (s *TCPSource) SampleRateHz() int { return s.sampleRate }

func (s *TCPSource) Next() (Sample, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.format.BytesPerSample()
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Sample{}, s.index, ErrExhausted
		}
		return Sample{}, s.index, fmt.Errorf("sampleio: tcp read: %w", err)
	}

	sample := decode(s.format, buf)
	idx := s.index
	s.index++
	return sample, idx, nil
}

func (s *TCPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
