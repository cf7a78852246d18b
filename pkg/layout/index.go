package layout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one published layout. It is never mutated after publication.
type Snapshot struct {
	Version uint64       `json:"version"`
	Text    string       `json:"text"`
	Regions []WordRegion `json:"regions"`
}

// Index holds the layout of the segment currently on screen.
// Readers always see a complete snapshot: a new layout replaces the old one
// in a single pointer swap.
type Index struct {
	metrics Metrics
	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	// pending cancels a deferred PublishAfter when a newer layout arrives
	mu      sync.Mutex
	pending context.CancelFunc
}

// NewIndex creates an empty index. A nil metrics uses DefaultMetrics.
func NewIndex(metrics Metrics) *Index {
	if metrics == nil {
		metrics = DefaultMetrics
	}
	idx := &Index{metrics: metrics}
	idx.current.Store(&Snapshot{Regions: []WordRegion{}})
	return idx
}

// Snapshot returns the current layout.
func (idx *Index) Snapshot() *Snapshot {
	return idx.current.Load()
}

// Regions returns the current word regions. The slice must not be modified.
func (idx *Index) Regions() []WordRegion {
	return idx.current.Load().Regions
}

// Publish lays out seg and makes it the current snapshot.
// Any pending deferred publication is cancelled.
func (idx *Index) Publish(seg Segment) (*Snapshot, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.cancelPendingLocked()
	return idx.publish(seg)
}

// PublishAfter publishes seg once settle has elapsed, giving the page time to
// finish rendering at its final layout. A later Publish, PublishAfter or Clear
// supersedes it. The returned channel receives the result and is closed.
func (idx *Index) PublishAfter(ctx context.Context, seg Segment, settle time.Duration) <-chan error {
	if err := seg.Validate(); err != nil {
		done := make(chan error, 1)
		done <- err
		close(done)
		return done
	}

	ctx, cancel := context.WithCancel(ctx)
	idx.mu.Lock()
	if idx.pending != nil {
		idx.pending()
	}
	idx.pending = cancel
	idx.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer cancel()

		timer := time.NewTimer(settle)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			done <- ctx.Err()
		case <-timer.C:
			// Re-check under the lock so a newer Publish cannot be overwritten
			idx.mu.Lock()
			defer idx.mu.Unlock()
			if err := ctx.Err(); err != nil {
				done <- err
				return
			}
			_, err := idx.publish(seg)
			done <- err
		}
	}()
	return done
}

// Clear publishes an empty layout, e.g. between pages.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.cancelPendingLocked()
	idx.current.Store(&Snapshot{
		Version: idx.version.Add(1),
		Regions: []WordRegion{},
	})
}

func (idx *Index) publish(seg Segment) (*Snapshot, error) {
	regions, err := Compute(seg, idx.metrics)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Version: idx.version.Add(1),
		Text:    seg.Text,
		Regions: regions,
	}
	idx.current.Store(snap)
	return snap, nil
}

func (idx *Index) cancelPendingLocked() {
	if idx.pending != nil {
		idx.pending()
		idx.pending = nil
	}
}
