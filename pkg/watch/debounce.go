package watch

import (
	"sync"
	"time"
)

// debouncer emits a path on out once no touch has been seen for delay
type debouncer struct {
	delay time.Duration
	out   chan<- string

	mu      sync.Mutex
	pending map[string]*time.Timer
	done    chan struct{}
}

func newDebouncer(delay time.Duration, out chan<- string) *debouncer {
	return &debouncer{
		delay:   delay,
		out:     out,
		pending: map[string]*time.Timer{},
		done:    make(chan struct{}),
	}
}

func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.pending[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()

		select {
		case d.out <- path:
		case <-d.done:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, t := range d.pending {
		t.Stop()
		delete(d.pending, path)
	}
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}
