// Package goid reports the runtime id of the calling goroutine.
//
// The reactive tracking context and the loop's re-entrancy check both key
// their state by this id, so they must agree on how it is parsed.
package goid

import "runtime"

// ID parses the current goroutine's id from its stack header.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// "goroutine <id> [running]:"
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
