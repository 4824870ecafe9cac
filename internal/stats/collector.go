package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks build statistics using lock-free atomic counters.
type Collector struct {
	patternsResolved atomic.Int64
	patternsFailed   atomic.Int64
	filesMatched     atomic.Int64
	filesCopied      atomic.Int64
	filesSkipped     atomic.Int64
	filesFailed      atomic.Int64
	bytesCopied      atomic.Int64
	assetsWritten    atomic.Int64
	assetsUnchanged  atomic.Int64
	bytesWritten     atomic.Int64
	permsRestored    atomic.Int64
	startTime        time.Time

	// Written only by the presenter's Tick, not by workers.
	mu         sync.Mutex
	throughput [ringSize]int64
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	PatternsResolved int64
	PatternsFailed   int64
	FilesMatched     int64
	FilesCopied      int64
	FilesSkipped     int64
	FilesFailed      int64
	BytesCopied      int64
	AssetsWritten    int64
	AssetsUnchanged  int64
	BytesWritten     int64
	PermsRestored    int64
	Elapsed          time.Duration
}

func (c *Collector) AddPatternsResolved(n int64) { c.patternsResolved.Add(n) }
func (c *Collector) AddPatternsFailed(n int64)   { c.patternsFailed.Add(n) }
func (c *Collector) AddFilesMatched(n int64)     { c.filesMatched.Add(n) }
func (c *Collector) AddFilesCopied(n int64)      { c.filesCopied.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)     { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesFailed(n int64)      { c.filesFailed.Add(n) }
func (c *Collector) AddBytesCopied(n int64)      { c.bytesCopied.Add(n) }
func (c *Collector) AddAssetsWritten(n int64)    { c.assetsWritten.Add(n) }
func (c *Collector) AddAssetsUnchanged(n int64)  { c.assetsUnchanged.Add(n) }
func (c *Collector) AddBytesWritten(n int64)     { c.bytesWritten.Add(n) }
func (c *Collector) AddPermsRestored(n int64)    { c.permsRestored.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		PatternsResolved: c.patternsResolved.Load(),
		PatternsFailed:   c.patternsFailed.Load(),
		FilesMatched:     c.filesMatched.Load(),
		FilesCopied:      c.filesCopied.Load(),
		FilesSkipped:     c.filesSkipped.Load(),
		FilesFailed:      c.filesFailed.Load(),
		BytesCopied:      c.bytesCopied.Load(),
		AssetsWritten:    c.assetsWritten.Load(),
		AssetsUnchanged:  c.assetsUnchanged.Load(),
		BytesWritten:     c.bytesWritten.Load(),
		PermsRestored:    c.permsRestored.Load(),
		Elapsed:          c.Elapsed(),
	}
}

// Tick records the bytes written since the previous Tick. Called 1/sec by
// the presenter.
func (c *Collector) Tick() {
	current := c.bytesWritten.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average written bytes/sec over the last n samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"patterns=%d matched=%d copied=%d skipped=%d failed=%d written=%d unchanged=%d bytes=%d",
		s.PatternsResolved, s.FilesMatched, s.FilesCopied, s.FilesSkipped,
		s.FilesFailed, s.AssetsWritten, s.AssetsUnchanged, s.BytesWritten,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
