// Package scale reads weight observations from a serial weighing device.
//
// The device streams free-form ASCII such as "ST,GS,+000.500kg\r\n". Each
// chunk read from the line is scanned for the first run of digits and dots,
// whose leading number is interpreted as kilograms. Chunks without a number
// are skipped; the most recent observation is the current weight.
package scale

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"

	domainerrors "github.com/canlabel/labeler-station/internal/errors"
)

// DefaultBaud is the line speed of the supported scales.
const DefaultBaud = 9600

const chunkSize = 64

var (
	numberPattern = regexp.MustCompile(`[0-9.]+`)
	decimalPrefix = regexp.MustCompile(`^[0-9]*(?:\.[0-9]*)?`)
	gramsPerKilo  = decimal.NewFromInt(1000)

	// maxKilograms bounds a reading so the gram value always fits in int64.
	maxKilograms = decimal.NewFromInt(1_000_000)
)

// Reader owns an open byte stream from a scale.
type Reader struct {
	port     io.ReadCloser
	name     string
	consumed atomic.Bool
	closed   atomic.Bool
}

// Open opens the serial device at path in raw 8N1 mode.
// Any failure is reported as a device unavailable error.
func Open(path string, baud int) (*Reader, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := openPort(path, baud)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "scale %s unavailable", path)
	}
	return &Reader{port: port, name: path}, nil
}

// NewReader wraps an already open stream.
func NewReader(name string, port io.ReadCloser) *Reader {
	return &Reader{port: port, name: name}
}

// Name returns the device path or label the reader was opened with.
func (r *Reader) Name() string { return r.name }

// Close releases the device. A blocked Chunks loop ends once the read returns.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.port.Close()
}

// Chunks yields raw text as it arrives until end of data or a read error.
// The sequence can be ranged over once; later calls yield nothing.
func (r *Reader) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !r.consumed.CompareAndSwap(false, true) {
			return
		}
		buf := make([]byte, chunkSize)
		for {
			n, err := r.port.Read(buf)
			if n > 0 {
				if !yield(string(buf[:n]), nil) {
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) || r.closed.Load() {
					return
				}
				yield("", fmt.Errorf("read scale %s: %w", r.name, err))
				return
			}
		}
	}
}

// Weights yields a weight in grams for every chunk that carries a number.
func (r *Reader) Weights() iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		for chunk, err := range r.Chunks() {
			if err != nil {
				yield(0, err)
				return
			}
			grams, ok := ParseWeight(chunk)
			if !ok {
				continue
			}
			if !yield(grams, nil) {
				return
			}
		}
	}
}

// ParseWeight extracts the first decimal number in chunk as kilograms and
// returns it in whole grams, rounding half away from zero. Only the leading
// number of a run is read, so "1.2.3" is 1.2 kg. Readings above a million
// kilograms are rejected.
func ParseWeight(chunk string) (int64, bool) {
	run := numberPattern.FindString(chunk)
	num := strings.TrimSuffix(decimalPrefix.FindString(run), ".")
	if strings.Trim(num, ".") == "" {
		return 0, false
	}
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	kg, err := decimal.NewFromString(num)
	if err != nil || kg.GreaterThan(maxKilograms) {
		return 0, false
	}
	return kg.Mul(gramsPerKilo).Round(0).IntPart(), true
}
