package classify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgallion1/examscope/internal/document"
	"github.com/dgallion1/examscope/internal/provider"
)

// Pacer hands out one rate limiter per provider, shared across requests.
type Pacer struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewPacer allows rps calls per second to each provider. rps <= 0 disables
// pacing.
func NewPacer(rps float64) *Pacer {
	p := &Pacer{limit: rate.Inf, burst: 1, limiters: make(map[string]*rate.Limiter)}
	if rps > 0 {
		p.limit = rate.Limit(rps)
		p.burst = max(1, int(rps))
	}
	return p
}

// For returns the limiter for a provider.
func (p *Pacer) For(name string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[name]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[name] = l
	}
	return l
}

// AIOptions configures a model-backed strategy.
type AIOptions struct {
	CharLimit int           // per-question truncation
	Timeout   time.Duration // per call
	Chapters  []string      // suggested chapter names
}

// AI classifies batches with one hosted model.
type AI struct {
	p       provider.Provider
	limiter *rate.Limiter
	stats   *provider.Stats
	opts    AIOptions
	log     *slog.Logger
}

func NewAI(p provider.Provider, limiter *rate.Limiter, stats *provider.Stats, opts AIOptions, log *slog.Logger) *AI {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &AI{p: p, limiter: limiter, stats: stats, opts: opts, log: log}
}

func (a *AI) Name() string { return a.p.Name() }

// Classify sends the batch as a single prompt. Provider failures come back
// as Failed wrapping *provider.UnavailableError; unreadable replies as
// Failed wrapping *MalformedResponseError.
func (a *AI) Classify(ctx context.Context, batch []document.Question) Outcome {
	if len(batch) == 0 {
		return Complete{}
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return Failed{Err: err}
	}

	callCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	prompt := BuildBatchPrompt(a.opts.Chapters, batch, a.opts.CharLimit)
	start := time.Now()
	raw, err := a.p.Complete(callCtx, SystemPrompt, prompt)
	elapsed := time.Since(start)
	a.stats.Record(a.p.Name(), elapsed.Milliseconds(), err != nil)
	if err != nil {
		return Failed{Err: err}
	}

	a.log.Debug("classification reply",
		"provider", a.p.Name(),
		"questions", len(batch),
		"duration_ms", elapsed.Milliseconds(),
		"response_chars", len(raw),
	)

	results, degraded, err := ParseResponse(a.p.Name(), raw, len(batch))
	if err != nil {
		return Failed{Err: err}
	}
	if len(degraded) > 0 {
		return Partial{Results: results, Degraded: degraded}
	}
	return Complete{Results: results}
}
