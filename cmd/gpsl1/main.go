package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bramburn/gpsl1/internal/receiver"
	"github.com/bramburn/gpsl1/internal/sampleio"
)

const (
	exitSuccess              = 0
	exitBadConfig            = 2
	exitSourceExhaustedEarly = 3
	exitInternalInvariant    = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	filePath := flag.String("file", "", "path to a file of interleaved I/Q samples (mutually exclusive with -tcp)")
	tcpAddr := flag.String("tcp", "", "host:port of a TCP sample server (mutually exclusive with -file)")
	sampleRateHz := flag.Int("sample-rate-hz", 2046000, "input sample rate in Hz, must be >= 2.046e6")
	sampleFormat := flag.String("sample-format", "int8_iq", "int8_iq, uint8_iq, or float32_iq")
	maxTrackedSVs := flag.Int("max-tracked-svs", 10, "maximum number of concurrently tracked satellites")
	pllBandwidthHz := flag.Float64("pll-bandwidth-hz", 10, "carrier PLL noise bandwidth in Hz")
	dllBandwidthHz := flag.Float64("dll-bandwidth-hz", 1, "code DLL noise bandwidth in Hz")
	logLevel := flag.String("log-level", "info", "debug, info, warn, or error")
	flag.Parse()

	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		return exitBadConfig
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	format, err := sampleio.ParseFormat(*sampleFormat)
	if err != nil {
		logger.Errorf("bad configuration: %v", err)
		return exitBadConfig
	}

	source, err := openSource(*filePath, *tcpAddr, format, *sampleRateHz)
	if err != nil {
		logger.Errorf("bad configuration: %v", err)
		return exitBadConfig
	}

	cfg := receiver.Config{
		SampleRateHz:            *sampleRateHz,
		SampleFormat:            format,
		MaxConcurrentTrackedSVs: *maxTrackedSVs,
		PLLBandwidthHz:          *pllBandwidthHz,
		DLLBandwidthHz:          *dllBandwidthHz,
	}

	orc, err := receiver.New(cfg, source, logger)
	if err != nil {
		logger.Errorf("bad configuration: %v", err)
		return exitBadConfig
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := orc.Events(ctx)

	if err := orc.Start(); err != nil {
		logger.Errorf("failed to start receiver: %v", err)
		return exitInternalInvariant
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	gotFix := false
	for {
		select {
		case <-sigCh:
			logger.Info("shutting down on signal")
			_ = orc.Stop()
			return exitSuccess

		case ev := <-events:
			logEvent(logger, ev)
			if ev.Type == receiver.EventFix {
				gotFix = true
			}

		case <-orc.Done():
			return classifyExit(orc.Err(), gotFix, logger)
		}
	}
}

func openSource(filePath, tcpAddr string, format sampleio.Format, sampleRateHz int) (sampleio.Source, error) {
	switch {
	case filePath != "" && tcpAddr != "":
		return nil, fmt.Errorf("specify only one of -file or -tcp")
	case filePath != "":
		return sampleio.OpenFile(filePath, format, sampleRateHz)
	case tcpAddr != "":
		host, _, err := net.SplitHostPort(tcpAddr)
		if err != nil || host == "" {
			return nil, fmt.Errorf("invalid -tcp address %q: %v", tcpAddr, err)
		}
		return sampleio.DialTCP(tcpAddr, format, sampleRateHz, 10*time.Second)
	default:
		return nil, fmt.Errorf("one of -file or -tcp is required")
	}
}

func logEvent(logger logrus.FieldLogger, ev receiver.Event) {
	fields := logrus.Fields{"type": ev.Type}
	if ev.SVID != 0 {
		fields["sv_id"] = ev.SVID
	}
	if ev.Err != nil {
		fields["err"] = ev.Err
	}
	if ev.Fix != nil {
		fields["x"] = ev.Fix.X
		fields["y"] = ev.Fix.Y
		fields["z"] = ev.Fix.Z
		fields["clock_bias_s"] = ev.Fix.ClockBiasSec
		fields["hdop"] = ev.Fix.HDOP
		fields["vdop"] = ev.Fix.VDOP
	}

	switch ev.Type {
	case receiver.EventError:
		logger.WithFields(fields).Warn("receiver event")
	default:
		logger.WithFields(fields).Info("receiver event")
	}
}

func classifyExit(err error, gotFix bool, logger logrus.FieldLogger) int {
	if err == nil {
		return exitSuccess
	}
	switch {
	case errors.Is(err, receiver.ErrSampleSourceExhausted):
		logger.Warnf("sample source exhausted: %v", err)
		if gotFix {
			return exitSuccess
		}
		return exitSourceExhaustedEarly
	case errors.Is(err, receiver.ErrInternalInvariant):
		logger.Errorf("internal invariant violated: %v", err)
		return exitInternalInvariant
	default:
		logger.Errorf("receiver stopped: %v", err)
		return exitInternalInvariant
	}
}
