// Package requestlog mirrors request/response pairs to a directory
// tree without ever blocking the responder, grounded on the teacher's
// StartLogAggregator/RequestLoggerMiddleware pattern
// (server/handlers/debugRequestsHandler.go) of a channel-fed
// background goroutine, but reworked from an in-memory ring buffer
// serving a debug endpoint into a disk-writing pipeline with
// drop-oldest overflow semantics and one or more worker goroutines.
package requestlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"filemock/internal/diag"
)

// Format selects the on-disk serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultQueueCapacity matches the spec's recommended bound.
const DefaultQueueCapacity = 1024

// Pipeline owns the bounded queue and the worker pool draining it.
type Pipeline struct {
	root    string
	format  Format
	sink    diag.Sink
	queue   chan *Record
	workers int

	wg sync.WaitGroup

	mu       sync.Mutex // guards drop-oldest races on queue
}

// New constructs a Pipeline. Workers are not started until Start is
// called.
func New(root string, format Format, workers int, sink diag.Sink) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		root:    root,
		format:  format,
		sink:    sink,
		queue:   make(chan *Record, DefaultQueueCapacity),
		workers: workers,
	}
}

// Start launches the worker goroutines. Call Stop to drain and join
// them during shutdown.
func (p *Pipeline) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop closes the queue and waits for every worker to drain it. Call
// this only after no further Enqueue calls will be made.
func (p *Pipeline) Stop() {
	close(p.queue)
	p.wg.Wait()
}

// Enqueue is O(1) and never blocks on disk. If the queue is full the
// oldest pending record is dropped to make room and a QueueOverflow
// diagnostic is emitted; this is the spec's deliberate reliability
// trade, never stalling a client because the disk is slow.
func (p *Pipeline) Enqueue(r *Record) {
	select {
	case p.queue <- r:
		return
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case p.queue <- r:
		return
	default:
	}

	select {
	case <-p.queue:
		p.sink.Emit(diag.Diagnostic{Kind: diag.KindQueueOverflow})
	default:
	}

	select {
	case p.queue <- r:
	default:
		// Lost the race against other producers; count this record as
		// overflow too rather than blocking the caller.
		p.sink.Emit(diag.Diagnostic{Kind: diag.KindQueueOverflow})
	}
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for r := range p.queue {
		if err := p.write(r); err != nil {
			p.sink.Emit(diag.Diagnostic{Kind: diag.KindLogWriteFailed, Err: err})
		}
	}
}

func (p *Pipeline) write(r *Record) error {
	dir := filepath.Join(p.root, sanitizedPathDirs(r.Request.Path)...)
	dir = filepath.Join(dir, sanitizeSegment(r.Request.Method))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	ext := "json"
	if p.format == FormatYAML {
		ext = "yaml"
	}
	base := r.Timestamp + "_" + r.RequestID

	data, err := marshal(r, p.format)
	if err != nil {
		return err
	}

	return writeNewFile(dir, base, ext, data)
}

func marshal(r *Record, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(r)
	}
	return json.MarshalIndent(r, "", "  ")
}

// writeNewFile creates dir/base.ext with O_CREATE|O_EXCL; on EEXIST it
// appends -1, -2, ... suffixes until a free name is found.
func writeNewFile(dir, base, ext string, data []byte) error {
	name := filepath.Join(dir, base+"."+ext)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	for n := 1; os.IsExist(err); n++ {
		name = filepath.Join(dir, base+"-"+strconv.Itoa(n)+"."+ext)
		f, err = os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// sanitizedPathDirs splits a request path into directory segments,
// replacing any segment equal to "." or ".." or containing "/" or NUL
// with "_".
func sanitizedPathDirs(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{"_root_"}
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = sanitizeSegment(p)
	}
	return out
}

func sanitizeSegment(seg string) string {
	if seg == "." || seg == ".." || seg == "" || strings.ContainsAny(seg, "/\x00") {
		return "_"
	}
	return seg
}

// FormatTimestamp renders t as UTC ISO-8601 with colons replaced by
// hyphens and microsecond precision, e.g. 2025-01-28T15-30-45.123456Z.
func FormatTimestamp(t time.Time) string {
	u := t.UTC()
	s := u.Format("2006-01-02T15:04:05.000000Z")
	return strings.ReplaceAll(s[:len(s)-1], ":", "-") + "Z"
}
