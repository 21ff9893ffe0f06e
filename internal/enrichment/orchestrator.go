package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/sentinel/internal/circuitbreaker"
	"github.com/aristath/sentinel/internal/citation"
	"github.com/aristath/sentinel/internal/modules"
	"github.com/rs/zerolog"
)

// EventKind distinguishes the lifecycle events the orchestrator emits.
type EventKind string

const (
	EventModuleStarted   EventKind = "module_started"
	EventModuleFinished  EventKind = "module_finished"
	EventWaveStarted     EventKind = "wave_started"
	EventWaveFinished    EventKind = "wave_finished"
	EventJobAborted      EventKind = "job_aborted"
)

// Event is a single progress notification emitted during Enrich.
type Event struct {
	Kind      EventKind
	Domain    string
	Wave      int
	ModuleID  string
	Status    modules.Status
	At        time.Time
}

// ProgressFunc receives orchestrator events; it must not block for long,
// since it is called synchronously from the wave executor's goroutines.
type ProgressFunc func(Event)

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	JobTimeoutSeconds int
	CriticalModules   []string
	BreakerConfig     circuitbreaker.Config
}

// DefaultOrchestratorConfig mirrors the documented defaults: a 600-second
// job budget and m01_company_context as the sole critical module, since
// every module in waves 2-4 either depends on it directly or depends on
// something that does.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		JobTimeoutSeconds: 600,
		CriticalModules:   []string{criticalModuleDefault},
		BreakerConfig:     circuitbreaker.DefaultConfig(),
	}
}

// Orchestrator runs the wave plan for a single domain at a time (batch
// concurrency is the batch package's responsibility). It holds one
// long-lived Module instance per id so each module's adapter cache and
// circuit breaker persist across every enrichment it serves.
type Orchestrator struct {
	cfg      OrchestratorConfig
	plan     ExecutionPlan
	instances map[string]modules.Module
	breakers *circuitbreaker.Registry
	log      zerolog.Logger
}

// NewOrchestrator instantiates every registered module exactly once and
// builds the four-wave plan.
func NewOrchestrator(registry *modules.Registry, cfg OrchestratorConfig, log zerolog.Logger) *Orchestrator {
	instances := make(map[string]modules.Module)
	for _, id := range registry.IDs() {
		if mod, ok := registry.New(id); ok {
			instances[id] = mod
		}
	}
	return &Orchestrator{
		cfg:       cfg,
		plan:      BuildExecutionPlan(registry),
		instances: instances,
		breakers:  circuitbreaker.NewRegistry(cfg.BreakerConfig),
		log:       log,
	}
}

// Plan exposes the built execution plan, e.g. for ETA display.
func (o *Orchestrator) Plan() ExecutionPlan { return o.plan }

// Result is the full per-domain enrichment outcome.
type Result struct {
	Domain      string
	Modules     modules.Context
	StartedAt   time.Time
	FinishedAt  time.Time
	AbortedWave int // 0 if the job ran to completion
}

func (o *Orchestrator) isCritical(id string) bool {
	for _, c := range o.cfg.CriticalModules {
		if c == id {
			return true
		}
	}
	return false
}

// Enrich runs every wave of the plan sequentially, modules within a wave
// concurrently, and returns once every wave has either completed or the
// job has been aborted by a critical-module failure or the job timeout.
func (o *Orchestrator) Enrich(ctx context.Context, domain string, emit ProgressFunc) Result {
	if emit == nil {
		emit = func(Event) {}
	}
	domain = modules.NormalizeDomain(domain)

	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.JobTimeoutSeconds)*time.Second)
	defer cancel()

	result := Result{Domain: domain, Modules: modules.Context{}, StartedAt: time.Now().UTC()}

	for waveIdx, waveIDs := range o.plan.Waves {
		waveNum := waveIdx + 1
		emit(Event{Kind: EventWaveStarted, Domain: domain, Wave: waveNum, At: time.Now().UTC()})

		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, id := range waveIDs {
			mod, ok := o.instances[id]
			if !ok {
				continue
			}
			wg.Add(1)
			go func(id string, mod modules.Module) {
				defer wg.Done()
				o.runModule(jobCtx, mod, id, domain, result, &mu, emit, waveNum)
			}(id, mod)
		}
		wg.Wait()

		emit(Event{Kind: EventWaveFinished, Domain: domain, Wave: waveNum, At: time.Now().UTC()})

		if jobCtx.Err() != nil {
			result.AbortedWave = waveNum
			emit(Event{Kind: EventJobAborted, Domain: domain, Wave: waveNum, At: time.Now().UTC()})
			break
		}

		// A critical module's failure in this wave aborts every later wave.
		aborted := false
		mu.Lock()
		for _, id := range waveIDs {
			if o.isCritical(id) {
				if r, ok := result.Modules[id]; ok && r.Status != modules.StatusSuccess {
					aborted = true
				}
			}
		}
		mu.Unlock()
		if aborted {
			result.AbortedWave = waveNum
			emit(Event{Kind: EventJobAborted, Domain: domain, Wave: waveNum, At: time.Now().UTC()})
			break
		}
	}

	result.FinishedAt = time.Now().UTC()
	return result
}

func (o *Orchestrator) runModule(ctx context.Context, mod modules.Module, id, domain string, result Result, mu *sync.Mutex, emit ProgressFunc, waveNum int) {
	emit(Event{Kind: EventModuleStarted, Domain: domain, Wave: waveNum, ModuleID: id, At: time.Now().UTC()})

	mu.Lock()
	depsOK, missing := modules.DependenciesMet(mod.DependsOn(), result.Modules)
	mu.Unlock()

	var res modules.ModuleResult
	if !depsOK {
		res = modules.NewSkippedResult(id, domain, "dependencies not met")
		_ = missing
	} else {
		breaker := o.breakers.Get(id)
		if err := breaker.Allow(); err != nil {
			res = modules.NewSkippedResult(id, domain, err.Error())
		} else {
			timeout := time.Duration(mod.TimeoutSeconds()) * time.Second
			modCtx, cancel := context.WithTimeout(ctx, timeout)
			mu.Lock()
			snapshot := snapshotContext(result.Modules)
			mu.Unlock()
			r, err := mod.Execute(modCtx, domain, snapshot)
			cancel()
			var depErr *modules.DependencyNotMetError
			if errors.As(err, &depErr) {
				r = modules.NewSkippedResult(id, domain, err.Error())
			} else if err != nil {
				r = modules.NewErrorResult(id, domain, err, 0)
			}
			// A success whose primary citation has already expired is not
			// accepted; it is recorded as a failure.
			if r.Status == modules.StatusSuccess && citation.Classify(r.PrimaryCitation) == citation.Expired {
				r = modules.NewErrorResult(id, domain, fmt.Errorf("module %s succeeded with an expired primary citation", id), r.DurationMs)
			}
			res = r
			if res.Status == modules.StatusSuccess {
				breaker.RecordSuccess()
			} else if res.Status == modules.StatusFailed {
				breaker.RecordFailure()
			}
		}
	}

	mu.Lock()
	result.Modules[id] = &res
	mu.Unlock()

	emit(Event{Kind: EventModuleFinished, Domain: domain, Wave: waveNum, ModuleID: id, Status: res.Status, At: time.Now().UTC()})
}

// snapshotContext copies the context map so concurrent module goroutines
// within the same wave never race on result map reads while siblings are
// still writing their own entries.
func snapshotContext(ctx modules.Context) modules.Context {
	out := make(modules.Context, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
