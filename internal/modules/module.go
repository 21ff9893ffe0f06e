// Package modules implements the module framework: the shared ModuleResult
// envelope, the Module contract every one of the fifteen intelligence
// modules satisfies, and the process-wide module registry.
package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

// Status is the lifecycle state of a module's execution.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusTimeout Status = "timeout"
)

// DependencyNotMetError is raised when a module's declared prerequisite is
// absent from context or did not reach success. The scheduler converts
// this into a skipped result rather than a failure.
type DependencyNotMetError struct {
	ModuleID string
	Domain   string
	Missing  []string
}

func (e *DependencyNotMetError) Error() string {
	return fmt.Sprintf("module %s (%s): dependencies not met: %s", e.ModuleID, e.Domain, strings.Join(e.Missing, ", "))
}

// DataNotFoundError is benign: the module could not locate the requested
// data (e.g. a private company without filings) but still returns a
// P0-compliant degraded result.
type DataNotFoundError struct {
	ModuleID string
	DataType string
	Domain   string
	Reason   string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("module %s (%s): %s not found: %s", e.ModuleID, e.Domain, e.DataType, e.Reason)
}

// Error is a generic hard module error.
type Error struct {
	ModuleID string
	Domain   string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("module %s (%s): %v", e.ModuleID, e.Domain, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// ModuleResult is the per-module output envelope.
type ModuleResult struct {
	ModuleID             string
	Domain               string
	Status               Status
	Data                 map[string]any
	PrimaryCitation      citation.SourceCitation
	SupportingCitations  []citation.SourceCitation
	ExecutedAt           time.Time
	DurationMs           float64
	Cached               bool
	ErrorMessage         string
	ErrorType            string
}

// AllCitations returns the primary citation followed by supporting ones.
func (r ModuleResult) AllCitations() []citation.SourceCitation {
	all := make([]citation.SourceCitation, 0, 1+len(r.SupportingCitations))
	all = append(all, r.PrimaryCitation)
	return append(all, r.SupportingCitations...)
}

// IsFresh reports whether the primary citation classifies as fresh.
func (r ModuleResult) IsFresh() bool {
	return citation.Classify(r.PrimaryCitation) == citation.Fresh
}

// FreshnessStatus is the worst (most stale) status across all citations.
func (r ModuleResult) FreshnessStatus() citation.FreshnessStatus {
	worst := citation.Fresh
	for _, c := range r.AllCitations() {
		switch citation.Classify(c) {
		case citation.Expired:
			return citation.Expired
		case citation.Stale:
			worst = citation.Stale
		}
	}
	return worst
}

// PersistedRecord is the exact shape named by the persisted-record-shape
// contract: a storage-agnostic snapshot of a ModuleResult.
type PersistedRecord struct {
	ModuleID          string         `json:"module_id"`
	Domain            string         `json:"domain"`
	Status            string         `json:"status"`
	Data              map[string]any `json:"data"`
	PrimarySourceURL  string         `json:"primary_source_url"`
	PrimarySourceType string         `json:"primary_source_type"`
	PrimarySourceAt   time.Time      `json:"primary_source_at"`
	SupportingSources []SourceRef    `json:"supporting_sources"`
	ExecutedAt        time.Time      `json:"executed_at"`
	DurationMs        float64        `json:"duration_ms"`
	Cached            bool           `json:"cached"`
	ErrorMessage      string         `json:"error_message,omitempty"`
}

// SourceRef is a compact citation reference used inside PersistedRecord.
type SourceRef struct {
	URL  string    `json:"url"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

// ToPersistedRecord converts a ModuleResult into its persisted shape.
func (r ModuleResult) ToPersistedRecord() PersistedRecord {
	supporting := make([]SourceRef, 0, len(r.SupportingCitations))
	for _, c := range r.SupportingCitations {
		supporting = append(supporting, SourceRef{URL: c.SourceURL, Type: string(c.SourceType), At: c.RetrievedAt})
	}
	return PersistedRecord{
		ModuleID:          r.ModuleID,
		Domain:            r.Domain,
		Status:            string(r.Status),
		Data:              r.Data,
		PrimarySourceURL:  r.PrimaryCitation.SourceURL,
		PrimarySourceType: string(r.PrimaryCitation.SourceType),
		PrimarySourceAt:   r.PrimaryCitation.RetrievedAt,
		SupportingSources: supporting,
		ExecutedAt:        r.ExecutedAt,
		DurationMs:        r.DurationMs,
		Cached:            r.Cached,
		ErrorMessage:      r.ErrorMessage,
	}
}

// defaultErrorCitation builds a low-confidence placeholder citation used when a
// module fails and still must honor P0 by attaching a confidence-0
// citation.
func defaultErrorCitation(moduleID, domain string) citation.SourceCitation {
	c, _ := citation.New(citation.Manual, fmt.Sprintf("https://sentinel.internal/error/%s/%s", moduleID, domain), citation.WithConfidence(0), citation.WithNotes("error placeholder citation"))
	return c
}

// NewErrorResult builds a failed ModuleResult from an arbitrary error,
// always P0-compliant via a placeholder citation.
func NewErrorResult(moduleID, domain string, err error, durationMs float64) ModuleResult {
	errType := fmt.Sprintf("%T", err)
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return ModuleResult{
		ModuleID:        moduleID,
		Domain:          domain,
		Status:          StatusFailed,
		Data:            map[string]any{},
		PrimaryCitation: defaultErrorCitation(moduleID, domain),
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      durationMs,
		ErrorMessage:    msg,
		ErrorType:       errType,
	}
}

// NewSkippedResult builds a skipped ModuleResult for a module whose
// dependency was not met or whose circuit breaker is open.
func NewSkippedResult(moduleID, domain, reason string) ModuleResult {
	return ModuleResult{
		ModuleID:        moduleID,
		Domain:          domain,
		Status:          StatusSkipped,
		Data:            map[string]any{},
		PrimaryCitation: defaultErrorCitation(moduleID, domain),
		ExecutedAt:      time.Now().UTC(),
		ErrorMessage:    reason,
		ErrorType:       "Skipped",
	}
}

// Context is the map of predecessor ModuleResults visible to a module's
// Execute call.
type Context map[string]*ModuleResult

// DependenciesMet checks the declared deps against ctx, returning the
// missing/failed subset.
func DependenciesMet(deps []string, ctx Context) (bool, []string) {
	var missing []string
	for _, dep := range deps {
		result, ok := ctx[dep]
		if !ok || result.Status != StatusSuccess {
			missing = append(missing, dep)
		}
	}
	return len(missing) == 0, missing
}

// Module is the contract every intelligence module satisfies.
type Module interface {
	ID() string
	Wave() int
	DependsOn() []string
	TimeoutSeconds() int
	Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error)
}

// NormalizeDomain lowercases, strips scheme and "www.", and strips any
// trailing path or query, per the module contract's normalization rule.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?"); i >= 0 {
		d = d[:i]
	}
	return d
}

// Registry is the process-wide module_id -> factory mapping. It is built
// once at program start and treated as read-only thereafter.
type Registry struct {
	factories map[string]func() Module
	order     []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]func() Module{}}
}

// Register installs a factory under id. Intended to be called only during
// init-time wiring (see NewDefaultRegistry).
func (r *Registry) Register(id string, factory func() Module) {
	if _, exists := r.factories[id]; !exists {
		r.order = append(r.order, id)
	}
	r.factories[id] = factory
}

// New instantiates a fresh Module for id.
func (r *Registry) New(id string) (Module, bool) {
	f, ok := r.factories[id]
	if !ok {
		return nil, false
	}
	return f(), true
}

// IDs returns every registered module id in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NewDefaultRegistry builds the registry with all fifteen modules wired.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("m01_company_context", func() Module { return NewM01CompanyContext() })
	r.Register("m02_technology_stack", func() Module { return NewM02TechnologyStack() })
	r.Register("m03_traffic_analysis", func() Module { return NewM03TrafficAnalysis() })
	r.Register("m04_financial_profile", func() Module { return NewM04FinancialProfile() })
	r.Register("m05_competitor_intelligence", func() Module { return NewM05CompetitorIntelligence() })
	r.Register("m06_hiring_signals", func() Module { return NewM06HiringSignals() })
	r.Register("m07_strategic_context", func() Module { return NewM07StrategicContext() })
	r.Register("m08_investor_intelligence", func() Module { return NewM08InvestorIntelligence() })
	r.Register("m09_executive_intelligence", func() Module { return NewM09ExecutiveIntelligence() })
	r.Register("m10_buying_committee", func() Module { return NewM10BuyingCommittee() })
	r.Register("m11_displacement_analysis", func() Module { return NewM11DisplacementAnalysis() })
	r.Register("m12_case_study_matching", func() Module { return NewM12CaseStudyMatching() })
	r.Register("m13_icp_priority_mapping", func() Module { return NewM13IcpPriorityMapping() })
	r.Register("m14_signal_scoring", func() Module { return NewM14SignalScoring() })
	r.Register("m15_strategic_brief", func() Module { return NewM15StrategicBrief() })
	return r
}
