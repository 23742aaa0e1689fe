// Package main prints weight observations from a serial scale.
//
// Usage:
//
//	go run ./cmd/scale-probe /dev/ttyUSB0
//	go run ./cmd/scale-probe --baud 4800 --raw /dev/ttyS1
//
// Use it on the line PC to check wiring and baud rate before starting the station.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canlabel/labeler-station/internal/scale"
)

var (
	baud    = flag.Int("baud", scale.DefaultBaud, "Line speed")
	raw     = flag.Bool("raw", false, "Print raw chunks instead of parsed weights")
	timeout = flag.Duration("timeout", 0, "Stop after this long (0 runs until interrupted)")
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("Usage: scale-probe [flags] <serial-device>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	r, err := scale.Open(path, *baud)
	if err != nil {
		logger.Error("open failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	// Closing the port unblocks the pending read.
	go func() {
		<-ctx.Done()
		_ = r.Close() //nolint:errcheck // Shutting down
	}()

	logger.Info("reading scale", "port", path, "baud", *baud)
	started := time.Now()
	count := 0

	if *raw {
		for chunk, err := range r.Chunks() {
			if err != nil {
				logger.Error("read failed", "error", err)
				break
			}
			count++
			fmt.Printf("%8s  %q\n", time.Since(started).Truncate(time.Millisecond), chunk)
		}
	} else {
		for grams, err := range r.Weights() {
			if err != nil {
				logger.Error("read failed", "error", err)
				break
			}
			count++
			fmt.Printf("%8s  %6d g\n", time.Since(started).Truncate(time.Millisecond), grams)
		}
	}

	fmt.Printf("\n=== Probe Complete ===\n")
	fmt.Printf("Duration: %s\n", time.Since(started).Truncate(time.Millisecond))
	fmt.Printf("Observations: %d\n", count)
}
