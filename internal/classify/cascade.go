package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/examscope/internal/chunker"
	"github.com/dgallion1/examscope/internal/document"
	"github.com/dgallion1/examscope/internal/provider"
)

var tracer = otel.Tracer("examscope/classify")

// ProviderSource lists the configured providers in preference order and
// records their health.
type ProviderSource interface {
	Providers() []provider.Provider
	RecordFailure(name string, err error)
	RecordSuccess(name string)
}

// CascadeOptions configures batching and fan-out.
type CascadeOptions struct {
	Chunking    chunker.Config
	Concurrency int           // batches in flight
	CallTimeout time.Duration // per provider call
}

// Cascade runs the configured providers in order for each batch and falls
// back to the heuristic, which always succeeds.
type Cascade struct {
	providers ProviderSource
	heuristic *Heuristic
	pacer     *Pacer
	stats     *provider.Stats
	opts      CascadeOptions
	log       *slog.Logger
}

func NewCascade(providers ProviderSource, heuristic *Heuristic, pacer *Pacer, stats *provider.Stats, opts CascadeOptions, log *slog.Logger) *Cascade {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if pacer == nil {
		pacer = NewPacer(0)
	}
	return &Cascade{
		providers: providers,
		heuristic: heuristic,
		pacer:     pacer,
		stats:     stats,
		opts:      opts,
		log:       log,
	}
}

// Run is the outcome of classifying one document.
type Run struct {
	Results  []Result // one per question, in question order
	Warnings []string
}

// request holds the state shared by the batches of one Classify call.
type request struct {
	mu          sync.Mutex
	unavailable map[string]bool
	warnings    []string
}

func (r *request) isUnavailable(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unavailable[name]
}

// markUnavailable returns true the first time a provider is marked.
func (r *request) markUnavailable(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable[name] {
		return false
	}
	r.unavailable[name] = true
	return true
}

func (r *request) warn(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Classify classifies every question. With useAI false only the heuristic
// runs. A provider that reports itself unavailable is skipped for the rest
// of the call.
func (c *Cascade) Classify(ctx context.Context, questions []document.Question, useAI bool) Run {
	results := make([]Result, len(questions))
	if len(questions) == 0 {
		return Run{Results: results}
	}

	strategies := c.strategies(useAI)
	req := &request{unavailable: make(map[string]bool)}
	batches := chunker.Split(questions, c.opts.Chunking)

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for bi, b := range batches {
		g.Go(func() error {
			out := c.classifyBatch(ctx, bi, b.Questions, strategies, req)
			copy(results[b.Offset:b.Offset+len(b.Questions)], out)
			return nil
		})
	}
	g.Wait()

	return Run{Results: results, Warnings: req.warnings}
}

// strategies returns one AI strategy per configured provider followed by
// the heuristic.
func (c *Cascade) strategies(useAI bool) []Strategy {
	var out []Strategy
	if useAI {
		var chapters []string
		for _, ch := range c.heuristic.src.Get().Chapters {
			chapters = append(chapters, ch.Name)
		}
		opts := AIOptions{
			CharLimit: c.opts.Chunking.CharLimit,
			Timeout:   c.opts.CallTimeout,
			Chapters:  chapters,
		}
		for _, p := range c.providers.Providers() {
			out = append(out, NewAI(p, c.pacer.For(p.Name()), c.stats, opts, c.log))
		}
	}
	return append(out, c.heuristic)
}

func (c *Cascade) classifyBatch(ctx context.Context, index int, batch []document.Question, strategies []Strategy, req *request) []Result {
	ctx, span := tracer.Start(ctx, "classify.batch", trace.WithAttributes(
		attribute.Int("batch", index),
		attribute.Int("questions", len(batch)),
	))
	defer span.End()

	fallback := strategies[len(strategies)-1]
	log := c.log.With("batch", index, "questions", len(batch))

	for _, s := range strategies[:len(strategies)-1] {
		name := s.Name()
		if req.isUnavailable(name) {
			continue
		}

		switch o := s.Classify(ctx, batch).(type) {
		case Complete:
			c.providers.RecordSuccess(name)
			span.SetAttributes(attribute.String("classifier", name))
			return o.Results
		case Partial:
			c.providers.RecordSuccess(name)
			span.SetAttributes(attribute.String("classifier", name), attribute.Int("degraded", len(o.Degraded)))
			log.Warn("partial classification", "provider", name, "degraded", len(o.Degraded))
			req.warn("batch %d: %d of %d entries from %s were unreadable", index, len(o.Degraded), len(batch), name)
			return o.Results
		case Failed:
			var ue *provider.UnavailableError
			if errors.As(o.Err, &ue) {
				c.providers.RecordFailure(name, o.Err)
				span.AddEvent("provider unavailable", trace.WithAttributes(
					attribute.String("provider", name),
					attribute.Int("status", ue.StatusCode),
				))
				if req.markUnavailable(name) {
					log.Warn("provider unavailable", "provider", name, "status", ue.StatusCode, "error", o.Err)
					req.warn("%s unavailable: %v", name, o.Err)
				}
				continue
			}
			var me *MalformedResponseError
			if errors.As(o.Err, &me) {
				log.Warn("malformed provider reply", "provider", name, "error", me.Err, "response_chars", len(me.Raw))
				req.warn("batch %d: malformed reply from %s, classified by keywords", index, name)
			} else {
				log.Warn("classification failed", "provider", name, "error", o.Err)
				req.warn("batch %d: %s failed (%v), classified by keywords", index, name, o.Err)
			}
			span.AddEvent("fallback to keywords", trace.WithAttributes(attribute.String("provider", name)))
			span.SetAttributes(attribute.String("classifier", fallback.Name()))
			return c.fallback(ctx, fallback, batch)
		default:
			panic(fmt.Sprintf("classify: unhandled outcome %T", o))
		}
	}
	span.SetAttributes(attribute.String("classifier", fallback.Name()))
	return c.fallback(ctx, fallback, batch)
}

func (c *Cascade) fallback(ctx context.Context, s Strategy, batch []document.Question) []Result {
	switch o := s.Classify(ctx, batch).(type) {
	case Complete:
		return o.Results
	case Partial:
		return o.Results
	default:
		results := make([]Result, len(batch))
		for i := range results {
			results[i] = unknown(SourceHeuristic, "")
		}
		return results
	}
}
