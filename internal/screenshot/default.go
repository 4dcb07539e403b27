package screenshot

import "sync"

var defaultCounter = sync.OnceValue(func() *Counter {
	return NewCounter()
})

// Default returns the process-wide counter, creating it on first use.
// Hosts that can inject a *Counter should construct their own instead.
func Default() *Counter {
	return defaultCounter()
}

// NextIndex allocates from the process-wide counter.
func NextIndex() uint64 {
	return Default().Next()
}
