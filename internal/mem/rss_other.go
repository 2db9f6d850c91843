//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package mem

// MaxRSS is not available on this platform.
func MaxRSS() (int64, bool) {
	return 0, false
}
