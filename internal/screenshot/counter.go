package screenshot

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
)

// ErrAllocationStarted is returned by InitializeFromExisting once Next has
// been called. Compare with errors.Is.
var ErrAllocationStarted = shoterrors.New(shoterrors.ErrCodeAllocationStarted,
	"counter already handed out indices; initialize before allocating", nil)

// Counter is a mutex-guarded sequential index allocator.
// The zero value is ready to use and starts at 0.
type Counter struct {
	mu      sync.Mutex
	value   uint64
	started bool

	logger *slog.Logger
}

// Option configures a Counter.
type Option func(*Counter)

// WithLogger sets the logger used to report skipped files during scans.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Counter) {
		c.logger = logger
	}
}

// NewCounter creates a counter starting at 0.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Next increments the counter and returns the new value.
// N concurrent callers starting from value v receive exactly v+1..v+N.
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value++
	c.started = true
	return c.value
}

// Current returns the most recently committed value without mutating it.
func (c *Counter) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Reset sets the counter back to zero and re-opens it for initialization.
//
// Reset is a test-isolation hook. Calling it while other components rely on
// index uniqueness breaks that guarantee.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = 0
	c.started = false
}

// InitializeFromExisting scans dir for screenshot artifacts and sets the
// counter to the highest index found, or 0 when there are none. The
// directory is created if it does not exist.
//
// The scan runs without holding the lock; only the final value is committed
// under it. Call this once at startup before any Next; afterwards it returns
// ErrAllocationStarted and leaves the counter untouched.
func (c *Counter) InitializeFromExisting(dir string) (uint64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, shoterrors.New(shoterrors.ErrCodeScanFailed, "failed to create screenshots directory", err).
			WithDetail("dir", dir)
	}

	result, err := ScanDir(dir, c.log())
	if err != nil {
		return 0, err
	}

	if err := c.commit(result.Max); err != nil {
		return 0, err
	}

	c.log().Debug("screenshot counter initialized",
		slog.String("dir", dir),
		slog.Uint64("index", result.Max),
		slog.Int("matched", result.Matched),
		slog.Int("skipped", len(result.Skipped)))

	return result.Max, nil
}

// NextFilename allocates the next index and returns it with a matching
// artifact filename stamped with now.
func (c *Counter) NextFilename(now time.Time) (uint64, string) {
	index := c.Next()
	return index, Filename(index, now, newUniqueID())
}

// commit is the only write path besides Next and Reset.
func (c *Counter) commit(value uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAllocationStarted
	}
	c.value = value
	return nil
}

func (c *Counter) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// newUniqueID returns 8 hex characters of a random UUID.
func newUniqueID() string {
	id := uuid.New()
	return id.String()[:8]
}
