package tts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/zi2anki/internal/audiocache"
	zlog "github.com/ManuGH/zi2anki/internal/log"
	"github.com/ManuGH/zi2anki/internal/metrics"
)

// Fetcher is the upstream clip source. *Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, word string) ([]byte, error)
}

// PoolConfig defines configuration for the Pool.
type PoolConfig struct {
	Workers   int
	QueueSize int
	NegTTL    time.Duration
}

type outcome int

const (
	outcomeHit outcome = iota
	outcomeFetched
)

type job struct {
	ctx  context.Context
	word string
	done func(o outcome, err error)
}

// Pool manages concurrent clip fetches against a shared audio store.
//
// Two entry points feed it: Warm enqueues best-effort prefetches, and
// FetchBatch blocks until every word of a build is resolved. Words that
// failed recently sit in a negative cache and fail fast with
// ErrSuppressed until the entry expires.
type Pool struct {
	fetcher Fetcher
	store   audiocache.Store

	jobs    chan job
	workers int

	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	once     sync.Once
	stopOnce sync.Once

	// inflight dedupe for Warm
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// negative cache (word -> expiresAt)
	negMu  sync.Mutex
	neg    map[string]time.Time
	negTTL time.Duration

	logger zerolog.Logger
}

// NewPool builds a stopped pool; call Start before use.
func NewPool(fetcher Fetcher, store audiocache.Store, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.NegTTL <= 0 {
		cfg.NegTTL = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		fetcher:  fetcher,
		store:    store,
		jobs:     make(chan job, cfg.QueueSize),
		workers:  cfg.Workers,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
		neg:      make(map[string]time.Time),
		negTTL:   cfg.NegTTL,
		logger:   zlog.WithComponent("tts"),
	}
}

// Start launches the workers. Safe to call more than once.
func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for j := range p.jobs {
					p.handle(j)
				}
			}()
		}
		p.wg.Add(1)
		go p.negCleanupLoop()
	})
}

// Stop cancels in-flight fetches and waits for the workers to drain.
// Callers must not Warm or FetchBatch concurrently with Stop.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		close(p.jobs)
		p.wg.Wait()
	})
}

// Warm enqueues a best-effort prefetch for word. It reports false when
// the word was dropped because the queue is full or ctx is done.
func (p *Pool) Warm(ctx context.Context, word string) bool {
	if word == "" {
		return false
	}

	// global inflight dedupe
	p.inflightMu.Lock()
	if _, ok := p.inflight[word]; ok {
		p.inflightMu.Unlock()
		return true // already on its way
	}
	p.inflight[word] = struct{}{}
	p.inflightMu.Unlock()

	// fast negative-cache gate
	if p.isNegCached(word) {
		p.clearInflight(word)
		metrics.IncTTSRequest("negcache")
		return true
	}

	j := job{word: word, done: func(outcome, error) { p.clearInflight(word) }}
	select {
	case <-ctx.Done():
		p.clearInflight(word)
		return false
	case p.jobs <- j:
		return true
	default:
		// queue full -> drop
		p.clearInflight(word)
		metrics.IncTTSRequest("dropped")
		return false
	}
}

// BatchResult summarises a synchronous batch fetch.
type BatchResult struct {
	Hits    int
	Fetched int
	Failed  map[string]error
}

// FetchBatch resolves every word and blocks until all are done. Words
// already in the store count as hits; Failed maps word to the error
// that kept its clip out of the store.
func (p *Pool) FetchBatch(ctx context.Context, words []string) BatchResult {
	res := BatchResult{Failed: make(map[string]error)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, word := range words {
		if word == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			mu.Lock()
			res.Failed[word] = err
			mu.Unlock()
			continue
		}

		wg.Add(1)
		j := job{ctx: ctx, word: word, done: func(o outcome, err error) {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed[word] = err
			case o == outcomeHit:
				res.Hits++
			default:
				res.Fetched++
			}
		}}

		select {
		case <-ctx.Done():
			wg.Done()
			mu.Lock()
			res.Failed[word] = ctx.Err()
			mu.Unlock()
		case p.jobs <- j:
		}
	}

	wg.Wait()
	return res
}

func (p *Pool) handle(j job) {
	ctx := j.ctx
	if ctx == nil {
		// warm jobs run under the pool context so Stop cancels them
		ctx = p.ctx
	}

	o, err := p.resolve(ctx, j.word)
	if j.done != nil {
		j.done(o, err)
	}
}

// resolve checks the store, then the negative cache, then fetches.
func (p *Pool) resolve(ctx context.Context, word string) (outcome, error) {
	if _, err := p.store.Get(ctx, word); err == nil {
		metrics.IncTTSRequest("hit")
		return outcomeHit, nil
	} else if !errors.Is(err, audiocache.ErrMiss) {
		p.logger.Warn().Err(err).Str(zlog.FieldWord, word).Msg("audio store read failed, fetching anyway")
	}

	// check again, Warm's gate may be stale by the time we run
	if p.isNegCached(word) {
		metrics.IncTTSRequest("negcache")
		return 0, &Error{Sentinel: ErrSuppressed, Op: "fetch", Word: word}
	}

	start := time.Now()
	data, err := p.fetcher.Fetch(ctx, word)
	metrics.ObserveTTSFetch(time.Since(start).Seconds())
	if err != nil {
		// a cancelled build must not poison later builds
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			p.setNeg(word)
		}
		metrics.IncTTSRequest("error")
		return 0, err
	}

	if err := p.store.Put(ctx, word, data); err != nil {
		metrics.IncTTSRequest("error")
		return 0, err
	}
	metrics.IncTTSRequest("fetched")
	return outcomeFetched, nil
}

func (p *Pool) clearInflight(word string) {
	p.inflightMu.Lock()
	delete(p.inflight, word)
	p.inflightMu.Unlock()
}

func (p *Pool) isNegCached(word string) bool {
	p.negMu.Lock()
	defer p.negMu.Unlock()
	exp, ok := p.neg[word]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(p.neg, word)
		return false
	}
	return true
}

func (p *Pool) setNeg(word string) {
	p.negMu.Lock()
	p.neg[word] = time.Now().Add(p.negTTL)
	p.negMu.Unlock()
}

func (p *Pool) negCleanupLoop() {
	defer p.wg.Done()
	t := time.NewTicker(2 * time.Minute)
	defer t.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-t.C:
			now := time.Now()
			p.negMu.Lock()
			for k, exp := range p.neg {
				if now.After(exp) {
					delete(p.neg, k)
				}
			}
			p.negMu.Unlock()
		}
	}
}

// PoolStats is a point-in-time snapshot for the status endpoint.
type PoolStats struct {
	QueueDepth int `json:"queue_depth"`
	Inflight   int `json:"inflight"`
	NegCached  int `json:"neg_cached"`
}

func (p *Pool) Stats() PoolStats {
	p.inflightMu.Lock()
	inflight := len(p.inflight)
	p.inflightMu.Unlock()

	p.negMu.Lock()
	neg := len(p.neg)
	p.negMu.Unlock()

	return PoolStats{QueueDepth: len(p.jobs), Inflight: inflight, NegCached: neg}
}
