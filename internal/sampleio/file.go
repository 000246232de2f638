package sampleio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// FileSource replays a recorded interleaved I/Q file as a Source. It tracks
// bytes read and an instantaneous input rate the same way the teacher's
// stream.FileType accounts InBytes/InRate, so an Orchestrator can surface
// ingestion health without re-deriving it from sample counts.
type FileSource struct {
	mu         sync.Mutex
	f          *os.File
	r          *bufio.Reader
	format     Format
	sampleRate int
	index      int64

	inBytes    int64
	rateWindow time.Time
	rateBytes  int64
	inRateBps  float64
}

// OpenFile opens path for replay at sampleRateHz, decoding samples as format.
func OpenFile(path string, format Format, sampleRateHz int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sampleio: open %s: %w", path, err)
	}
	return &FileSource{
		f:          f,
		r:          bufio.NewReaderSize(f, 1<<20),
		format:     format,
		sampleRate: sampleRateHz,
		rateWindow: time.Now(),
	}, nil
}

func (s *FileSource) SampleRateHz() int { return s.sampleRate }

func (s *FileSource) Next() (Sample, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.format.BytesPerSample()
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Sample{}, s.index, ErrExhausted
		}
		return Sample{}, s.index, fmt.Errorf("sampleio: read: %w", err)
	}

	s.accountBytes(n)

	sample := decode(s.format, buf)
	idx := s.index
	s.index++
	return sample, idx, nil
}

func (s *FileSource) accountBytes(n int) {
	s.inBytes += int64(n)
	s.rateBytes += int64(n)
	if elapsed := time.Since(s.rateWindow); elapsed >= time.Second {
		s.inRateBps = float64(s.rateBytes) / elapsed.Seconds()
		s.rateBytes = 0
		s.rateWindow = time.Now()
	}
}

// InputRateBps returns the most recently measured input byte rate.
func (s *FileSource) InputRateBps() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inRateBps
}

func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
