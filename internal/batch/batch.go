// Package batch runs concurrent enrichment across many domains, bounded
// by a semaphore, reusing a single Orchestrator instance across every
// domain in the batch.
package batch

import (
	"context"
	"sync"

	"github.com/aristath/sentinel/internal/enrichment"
)

// Orchestrator is the subset of enrichment.Orchestrator that batch needs,
// kept as an interface so tests can supply a fake.
type Orchestrator interface {
	Enrich(ctx context.Context, domain string, emit enrichment.ProgressFunc) enrichment.Result
}

// Config bounds batch concurrency.
type Config struct {
	MaxConcurrent int
}

// DefaultConfig allows 5 concurrent domain enrichments in a batch, the
// same ceiling as a single orchestrator's per-process job concurrency.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 5}
}

// BatchOrchestrator fans a domain list out across a bounded worker pool.
type BatchOrchestrator struct {
	orch Orchestrator
	cfg  Config
}

// NewBatchOrchestrator wraps an existing Orchestrator.
func NewBatchOrchestrator(orch Orchestrator, cfg Config) *BatchOrchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &BatchOrchestrator{orch: orch, cfg: cfg}
}

// PerDomainCallback is invoked once per domain's result, as soon as it
// completes, in whatever order domains finish (not input order).
type PerDomainCallback func(enrichment.Result)

// EnrichBatch runs every domain through the wrapped orchestrator, at most
// cfg.MaxConcurrent at a time, invoking onResult as each completes. It
// returns once every domain has been processed.
func (b *BatchOrchestrator) EnrichBatch(ctx context.Context, domains []string, emit func(string, enrichment.Event), onResult PerDomainCallback) []enrichment.Result {
	results := make([]enrichment.Result, len(domains))
	sem := make(chan struct{}, b.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for i, domain := range domains {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, domain string) {
			defer wg.Done()
			defer func() { <-sem }()

			var domainEmit enrichment.ProgressFunc
			if emit != nil {
				domainEmit = func(evt enrichment.Event) { emit(domain, evt) }
			}
			res := b.orch.Enrich(ctx, domain, domainEmit)
			results[i] = res
			if onResult != nil {
				onResult(res)
			}
		}(i, domain)
	}
	wg.Wait()
	return results
}
