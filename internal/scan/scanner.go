// Package scan orchestrates a full classpath scan: it walks every root
// through the loader registry, buffers every classfile it finds, fans
// parsing out across a pkg/parallel.WorkerPool, and links every parsed
// record through a single linker pass to build one Class Graph.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/intern"
	"github.com/classgraph/classgraph/internal/loader"
	"github.com/classgraph/classgraph/pkg/collections"
	"github.com/classgraph/classgraph/pkg/filter"
	"github.com/classgraph/classgraph/pkg/parallel"
	"github.com/classgraph/classgraph/pkg/utils"
)

// slowestTracked bounds how many slow classfile parses (the most recent
// ones at or above slowFileThreshold) a single Scan keeps for its debug
// summary.
const slowestTracked = 8

// slowParse records one classfile's parse duration for the slow-file ring
// buffer; only the slowestTracked most recent slow parses survive a scan.
type slowParse struct {
	path     string
	duration time.Duration
}

// slowFileThreshold is the minimum parse duration worth tracking; most
// classfiles parse in well under this, so the ring buffer only fills up
// when something is actually worth reporting.
const slowFileThreshold = 10 * time.Millisecond

// slowFileTracker keeps a bounded, most-recent window of slow classfile
// parses behind a collections.RingBuffer, evicting the oldest entry to make
// room for a new one instead of growing without bound across a large scan.
type slowFileTracker struct {
	mu  sync.Mutex
	buf *collections.RingBuffer[slowParse]
}

func newSlowFileTracker(capacity int) *slowFileTracker {
	return &slowFileTracker{buf: collections.NewRingBuffer[slowParse](capacity)}
}

func (t *slowFileTracker) record(path string, d time.Duration) {
	if d < slowFileThreshold {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buf.IsFull() {
		t.buf.Pop()
	}
	t.buf.Push(slowParse{path: path, duration: d})
}

// slowest drains the tracker's window and returns it sorted by duration,
// longest first.
func (t *slowFileTracker) slowest() []slowParse {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]slowParse, 0, t.buf.Len())
	for {
		v, ok := t.buf.Pop()
		if !ok {
			break
		}
		entries = append(entries, v)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].duration > entries[j].duration })
	return entries
}

// tracerName names the otel tracer every span this package starts is
// recorded under.
const tracerName = "github.com/classgraph/classgraph/internal/scan"

// Options configures one Scan run.
type Options struct {
	// Concurrency bounds the number of classfiles parsed at once. Zero
	// selects a small default.
	Concurrency int
	// IncludeNonPublicFields makes every field's type and attributes
	// resolved, not only public ones.
	IncludeNonPublicFields bool
	// Filter decides which referenced type names are in scope. Nil
	// allows everything.
	Filter *filter.ScanFilter
	// FieldsWanted pre-registers the static final fields whose constant
	// values should be captured.
	FieldsWanted classfile.FieldsWanted
	Logger       utils.Logger
}

// Scanner runs repeated scans against a fixed handler registry, reusing
// one intern table across calls so names stay canonical across scans.
type Scanner struct {
	opts     Options
	registry *loader.Registry
	intern   *intern.Table
}

// New creates a Scanner. registry supplies the classpath Handler for each
// root passed to Scan.
func New(opts Options, registry *loader.Registry) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	return &Scanner{
		opts:     opts,
		registry: registry,
		intern:   intern.New(),
	}
}

// classfileJob is one walked classfile buffered fully into memory, so the
// parse phase can run as plain worker-pool tasks instead of threading the
// walk's io.Reader across goroutine boundaries.
type classfileJob struct {
	relativePath string
	data         []byte
}

// Scan walks every root, buffers every classfile it finds, parses them
// concurrently through a pkg/parallel.WorkerPool, and links every parsed
// record into a fresh Class Graph. It returns as soon as every root has
// been fully walked and every buffered classfile parsed and linked (or the
// first fatal linker error, e.g. a duplicate scanned class, which aborts
// the run).
func (s *Scanner) Scan(ctx context.Context, roots []string) (*graph.Graph, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scan.Scan")
	defer span.End()
	span.SetAttributes(attribute.Int("scan.roots", len(roots)))

	timer := utils.NewTimer("scan", utils.WithLogger(s.opts.Logger))
	defer timer.PrintSummary()

	g := graph.New(s.intern, s.opts.Logger)

	walkPhase := timer.Start("walk")
	jobs, walkErr := s.walkAll(ctx, roots)
	walkPhase.Stop()
	if walkErr != nil {
		return g, walkErr
	}

	parsePhase := timer.Start("parse")
	slow := newSlowFileTracker(slowestTracked)
	results := s.parseAll(ctx, jobs, slow)
	parsePhase.Stop()

	var parsedCount, skippedCount atomic.Int64
	linkPhase := timer.Start("link")
	for _, res := range results {
		if res.Record == nil {
			skippedCount.Add(1)
		} else {
			parsedCount.Add(1)
		}

		if err := g.ConsumeParseResult(res); err != nil {
			linkPhase.Stop()
			span.SetAttributes(
				attribute.Int64("scan.classfiles_parsed", parsedCount.Load()),
				attribute.Int64("scan.classfiles_skipped", skippedCount.Load()),
			)
			return g, err
		}
	}
	linkDuration := linkPhase.Stop()

	if slowest := slow.slowest(); len(slowest) > 0 {
		s.opts.Logger.Debug("%d slow classfile parse(s), slowest: %s (%s)",
			len(slowest), slowest[0].path, slowest[0].duration)
	}

	span.SetAttributes(
		attribute.Int64("scan.classfiles_parsed", parsedCount.Load()),
		attribute.Int64("scan.classfiles_skipped", skippedCount.Load()),
		attribute.Int64("scan.link_duration_ms", linkDuration.Milliseconds()),
	)

	return g, nil
}

// walkAll walks every root concurrently and buffers each classfile it finds
// into a classfileJob, guarding the shared slice with a mutex since roots
// walk in parallel.
func (s *Scanner) walkAll(ctx context.Context, roots []string) ([]classfileJob, error) {
	var mu sync.Mutex
	var jobs []classfileJob

	group, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := root
		scheme, path := splitScheme(root)
		handler := s.registry.For(scheme)

		group.Go(func() error {
			return handler.Walk(gctx, path, func(relativePath string, r io.Reader) error {
				data, err := io.ReadAll(r)
				if err != nil {
					return fmt.Errorf("read %s: %w", relativePath, err)
				}
				mu.Lock()
				jobs = append(jobs, classfileJob{relativePath: relativePath, data: data})
				mu.Unlock()
				return nil
			})
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// parseAll parses every buffered classfile through a bounded worker pool,
// one otel span per classfile, reusing a classfile.Parser per worker slot
// instead of allocating one per classfile.
func (s *Scanner) parseAll(ctx context.Context, jobs []classfileJob, slow *slowFileTracker) []*classfile.ParseResult {
	var filterFn classfile.Filter
	if s.opts.Filter != nil {
		filterFn = s.opts.Filter.Allowed
	}

	parserPool := sync.Pool{
		New: func() interface{} {
			return classfile.NewParser(classfile.ParserOptions{
				IncludeNonPublicFields: s.opts.IncludeNonPublicFields,
			}, s.intern)
		},
	}

	pool := parallel.NewWorkerPool[classfileJob, *classfile.ParseResult](
		parallel.DefaultPoolConfig().WithWorkers(s.opts.Concurrency),
	)

	taskResults := pool.ExecuteFunc(ctx, jobs, func(ctx context.Context, job classfileJob) (*classfile.ParseResult, error) {
		_, pSpan := otel.Tracer(tracerName).Start(ctx, "scan.parseOne")
		pSpan.SetAttributes(attribute.String("scan.path", job.relativePath))
		defer pSpan.End()

		p := parserPool.Get().(*classfile.Parser)
		defer parserPool.Put(p)

		start := time.Now()
		result := p.Parse(job.relativePath, bytes.NewReader(job.data), filterFn, s.opts.FieldsWanted)
		slow.record(job.relativePath, time.Since(start))
		return result, nil
	})

	results := make([]*classfile.ParseResult, len(taskResults))
	for i, tr := range taskResults {
		results[i] = tr.Result
	}
	return results
}

// splitScheme splits a "scheme://path" root into its scheme and path; a
// root with no "://" has an empty scheme, dispatching to the registry's
// default (local filesystem) handler.
func splitScheme(root string) (scheme, path string) {
	if i := strings.Index(root, "://"); i >= 0 {
		return root[:i], root[i+3:]
	}
	return "", root
}
