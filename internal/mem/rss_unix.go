//go:build linux || darwin || freebsd || openbsd || netbsd

package mem

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// MaxRSS returns the peak resident set size of the current process in bytes.
// The second result is false if the value is not available.
func MaxRSS() (int64, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}

	// Linux and the BSDs report kilobytes, darwin reports bytes.
	rss := int64(ru.Maxrss) //nolint:unconvert // Maxrss is int32 on some platforms
	if runtime.GOOS != "darwin" {
		rss *= 1024
	}
	return rss, true
}
