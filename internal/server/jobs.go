package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/sentinel/internal/batch"
	"github.com/aristath/sentinel/internal/citationstore"
	"github.com/aristath/sentinel/internal/enrichment"
	"github.com/aristath/sentinel/internal/modules"
	"github.com/aristath/sentinel/internal/progress"
	"github.com/aristath/sentinel/internal/snapshotstore"
	"github.com/aristath/sentinel/internal/sysmetrics"
)

// jobHandlers implements the job-submission and job-observation endpoints.
type jobHandlers struct {
	log           zerolog.Logger
	orchestrator  *enrichment.Orchestrator
	batch         *batch.BatchOrchestrator
	progress      *progress.Manager
	citationStore *citationstore.Store
	snapshotStore *snapshotstore.Store
	sysMetrics    *sysmetrics.Collector
	jobTimeout    time.Duration

	mu      sync.Mutex
	results map[string]enrichment.Result
}

func newJobHandlers(cfg Config) *jobHandlers {
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &jobHandlers{
		log:           cfg.Log.With().Str("component", "job_handlers").Logger(),
		orchestrator:  cfg.Orchestrator,
		batch:         cfg.Batch,
		progress:      cfg.Progress,
		citationStore: cfg.CitationStore,
		snapshotStore: cfg.SnapshotStore,
		sysMetrics:    cfg.SysMetrics,
		jobTimeout:    jobTimeout,
		results:       map[string]enrichment.Result{},
	}
}

type createJobRequest struct {
	Domain string `json:"domain"`
}

type createJobResponse struct {
	JobID  string `json:"job_id"`
	Domain string `json:"domain"`
}

// handleCreateJob starts a single-domain enrichment job in the background
// and returns its id immediately; progress is observed via stream/ws and
// the final record via /result.
func (h *jobHandlers) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Domain == "" {
		http.Error(w, "domain is required", http.StatusBadRequest)
		return
	}
	domain := modules.NormalizeDomain(req.Domain)
	jobID := uuid.New().String()

	tracker := h.progress.New(jobID, domain)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.jobTimeout)
		defer cancel()

		res := h.orchestrator.Enrich(ctx, domain, tracker.HandleEvent)
		tracker.MarkDone()

		h.mu.Lock()
		h.results[jobID] = res
		h.mu.Unlock()

		if h.citationStore != nil {
			if err := h.citationStore.RecordAll(jobID, res.Modules); err != nil {
				h.log.Error().Err(err).Str("job_id", jobID).Msg("failed to record job result")
			}
		}
		if h.snapshotStore != nil {
			if err := h.snapshotStore.Put(ctx, jobID, domain, res.Modules); err != nil {
				h.log.Error().Err(err).Str("job_id", jobID).Msg("failed to snapshot job result")
			}
		}
	}()

	writeJSON(w, http.StatusAccepted, createJobResponse{JobID: jobID, Domain: domain})
}

// handleGetJob returns the current progress snapshot for a job.
func (h *jobHandlers) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	tracker, ok := h.progress.Get(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tracker.Snapshot())
}

// handleGetJobResult returns the final per-module records once a job has
// finished; 404 while still running.
func (h *jobHandlers) handleGetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	h.mu.Lock()
	res, ok := h.results[jobID]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "job result not available yet", http.StatusNotFound)
		return
	}

	records := make(map[string]modules.PersistedRecord, len(res.Modules))
	for id, mr := range res.Modules {
		if mr != nil {
			records[id] = mr.ToPersistedRecord()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":       res.Domain,
		"started_at":   res.StartedAt,
		"finished_at":  res.FinishedAt,
		"aborted_wave": res.AbortedWave,
		"modules":      records,
	})
}

// handleStreamJob streams progress events for a job over Server-Sent
// Events, starting with the current snapshot and a heartbeat to keep
// intermediary proxies from closing the connection.
func (h *jobHandlers) handleStreamJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	tracker, ok := h.progress.Get(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, unsubscribe := tracker.Subscribe()
	defer unsubscribe()

	writeSSE(w, tracker.Snapshot())
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(w, evt.Job)
			flusher.Flush()
			if evt.Job.Done {
				return
			}
		case <-heartbeat.C:
			writeSSE(w, map[string]string{"type": "heartbeat"})
			flusher.Flush()
		}
	}
}

// handleWebsocketJob is the websocket equivalent of handleStreamJob, for
// clients that prefer a bidirectional socket over SSE.
func (h *jobHandlers) handleWebsocketJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	tracker, ok := h.progress.Get(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	sub, unsubscribe := tracker.Subscribe()
	defer unsubscribe()

	if err := wsjson.Write(ctx, conn, tracker.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		case evt, ok := <-sub:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "job finished")
				return
			}
			if err := wsjson.Write(ctx, conn, evt.Job); err != nil {
				return
			}
			if evt.Job.Done {
				conn.Close(websocket.StatusNormalClosure, "job finished")
				return
			}
		}
	}
}

type createBatchRequest struct {
	Domains []string `json:"domains"`
}

// handleCreateBatch runs several domains through the batch orchestrator
// concurrently and returns once every domain has completed.
func (h *jobHandlers) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Domains) == 0 {
		http.Error(w, "domains is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.jobTimeout)
	defer cancel()

	domains := make([]string, len(req.Domains))
	trackers := make(map[string]*progress.Tracker, len(req.Domains))
	for i, d := range req.Domains {
		domain := modules.NormalizeDomain(d)
		domains[i] = domain
		jobID := uuid.New().String()
		trackers[domain] = h.progress.New(jobID, domain)
	}

	emit := func(domain string, evt enrichment.Event) {
		if t, ok := trackers[domain]; ok {
			t.HandleEvent(evt)
		}
	}

	results := h.batch.EnrichBatch(ctx, domains, emit, func(res enrichment.Result) {
		if t, ok := trackers[res.Domain]; ok {
			t.MarkDone()
		}
	})

	summary := make([]map[string]any, 0, len(results))
	for _, res := range results {
		summary = append(summary, map[string]any{
			"domain":       res.Domain,
			"aborted_wave": res.AbortedWave,
			"module_count": len(res.Modules),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": summary})
}

// handleSystemStatus reports process resource usage and active job counts.
func (h *jobHandlers) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"active_jobs": h.progress.ListActiveJobs(),
	}
	if h.sysMetrics != nil {
		snap, err := h.sysMetrics.Collect()
		if err != nil {
			h.log.Warn().Err(err).Msg("failed to collect system metrics")
		} else {
			resp["system"] = snap
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}
