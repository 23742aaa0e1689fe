//go:build !linux

package scale

import (
	"io"
	"os"
)

// openPort opens the device as-is; line settings are left to the OS driver.
func openPort(path string, _ int) (io.ReadCloser, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}
