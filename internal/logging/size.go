package logging

import "github.com/dustin/go-humanize"

// Bytes renders a byte count for log fields, e.g. "4.1 kB"
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
