// Package debounce provides a simple trailing-edge debouncer.
package debounce

import (
	"sync"
	"time"
)

// Debounce returns a function that delays invoking fn until duration has
// elapsed since the last call. Rapid calls collapse into a single
// invocation on the trailing edge.
func Debounce(duration time.Duration, fn func()) func() {
	var mu sync.Mutex
	var timer *time.Timer

	return func() {
		mu.Lock()
		defer mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(duration, fn)
	}
}
