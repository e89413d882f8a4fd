// ABOUTME: Pending result buffer grouped by poll interval
// ABOUTME: Drained by Complete and trimmed by the clear operations

package standingquery

import (
	"sync"
	"time"

	"github.com/nainya/nsilibridge/pkg/dag"
)

type interval struct {
	at   time.Time
	dags []dag.DAG
}

type resultBuffer struct {
	mu        sync.Mutex
	intervals []interval
	// avail is signaled after every non-empty append
	avail chan struct{}
}

func newResultBuffer() *resultBuffer {
	return &resultBuffer{avail: make(chan struct{}, 1)}
}

func (b *resultBuffer) append(at time.Time, dags []dag.DAG) {
	if len(dags) == 0 {
		return
	}
	b.mu.Lock()
	b.intervals = append(b.intervals, interval{at: at, dags: dags})
	b.mu.Unlock()

	select {
	case b.avail <- struct{}{}:
	default:
	}
}

func (b *resultBuffer) hits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, iv := range b.intervals {
		n += len(iv.dags)
	}
	return n
}

func (b *resultBuffer) intervalCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.intervals)
}

func (b *resultBuffer) hitsIn(i int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.intervals) {
		return 0, false
	}
	return len(b.intervals[i].dags), true
}

// drain removes up to n DAGs, oldest first
func (b *resultBuffer) drain(n int) []dag.DAG {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []dag.DAG
	for n > 0 && len(b.intervals) > 0 {
		head := &b.intervals[0]
		take := min(n, len(head.dags))
		out = append(out, head.dags[:take]...)
		head.dags = head.dags[take:]
		n -= take
		if len(head.dags) == 0 {
			b.intervals = b.intervals[1:]
		}
	}
	return out
}

func (b *resultBuffer) clearAll() {
	b.mu.Lock()
	b.intervals = nil
	b.mu.Unlock()
}

// clearIntervals drops the n oldest intervals
func (b *resultBuffer) clearIntervals(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n >= len(b.intervals) {
		b.intervals = nil
		return
	}
	if n > 0 {
		b.intervals = b.intervals[n:]
	}
}

// clearBefore drops intervals recorded before t
func (b *resultBuffer) clearBefore(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.intervals[:0]
	for _, iv := range b.intervals {
		if !iv.at.Before(t) {
			kept = append(kept, iv)
		}
	}
	b.intervals = kept
}
