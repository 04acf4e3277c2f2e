// Package reload holds the current compiled RouteTable behind an
// atomic pointer and swaps it in response to debounced filesystem
// change events, grounded on the teacher's watchConfigFile/reloadServer
// debounce-timer pattern (main.go, utils.go) but generalized to swap a
// route table in place instead of tearing down the whole server.
package reload

import (
	"sync"
	"time"

	"filemock/internal/diag"
	"filemock/internal/mockfs"
)

// DefaultDebounce matches the spec's 250ms debounce window.
const DefaultDebounce = 250 * time.Millisecond

// Coordinator owns the current RouteTable and serializes rescans
// triggered by filesystem events.
type Coordinator struct {
	root     string
	sink     diag.Sink
	debounce time.Duration

	current atomicTable
	rescanMu sync.Mutex // serializes rescans: one at a time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New performs the initial compile and returns a Coordinator ready to
// serve Current(). A fatal compile error (root missing or not a
// directory) is returned immediately since there is no prior table to
// fall back on at startup.
func New(root string, sink diag.Sink, debounce time.Duration) (*Coordinator, error) {
	c := &Coordinator{
		root:     root,
		sink:     sink,
		debounce: debounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	result, err := mockfs.Compile(root)
	if err != nil {
		return nil, err
	}
	for _, d := range result.Diagnostics {
		sink.Emit(d)
	}
	c.current.Store(result.Table)
	return c, nil
}

// Current returns the RouteTable snapshot in force right now. The
// returned pointer is immutable and safe to use for the lifetime of
// one request even if a reload publishes a new table concurrently.
func (c *Coordinator) Current() *mockfs.RouteTable {
	return c.current.Load()
}

// Run consumes change notifications from events, debounces them, and
// triggers a rescan after the quiet period. It blocks until events is
// closed or Stop is called.
func (c *Coordinator) Run(events <-chan struct{}) {
	defer close(c.done)

	var timer *time.Timer
	var timerMu sync.Mutex

	armTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(c.debounce, c.rescan)
	}

	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
			armTimer()
		case <-c.stop:
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timerMu.Unlock()
			return
		}
	}
}

// Stop terminates Run and waits for it to return.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// rescan recompiles the tree and atomically publishes the result.
// Rescans are serialized by rescanMu so overlapping debounce fires
// from a burst of events never race each other; because each rescan
// re-reads the filesystem at call time, the final published table
// always reflects the latest quiesced state even if an earlier rescan
// was still running when a later one was scheduled.
func (c *Coordinator) rescan() {
	c.rescanMu.Lock()
	defer c.rescanMu.Unlock()

	result, err := mockfs.Compile(c.root)
	if err != nil {
		c.sink.Emit(err.(diag.Diagnostic))
		c.sink.Warn("reload failed fatally; keeping previous route table")
		return
	}
	for _, d := range result.Diagnostics {
		c.sink.Emit(d)
	}
	c.current.Store(result.Table)
	c.sink.Success("route table reloaded")
}
