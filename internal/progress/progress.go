// Package progress tracks per-job, per-wave, and per-module status and
// fans events out to subscribers (the SSE and websocket handlers).
package progress

import (
	"sync"
	"time"

	"github.com/aristath/sentinel/internal/enrichment"
	"github.com/aristath/sentinel/internal/modules"
)

// subscriberCapacity bounds each subscriber channel. A slow subscriber
// drops its oldest buffered event rather than blocking the orchestrator
// goroutine that is emitting events for every other job; this is a
// deliberate divergence toward backpressure-by-drop instead of an
// unbounded queue.
const subscriberCapacity = 100

// ModuleProgress is the latest known status of one module within a job.
type ModuleProgress struct {
	ModuleID   string
	Wave       int
	Status     modules.Status
	StartedAt  time.Time
	FinishedAt time.Time
}

// WaveProgress aggregates module progress within one wave.
type WaveProgress struct {
	Wave       int
	StartedAt  time.Time
	FinishedAt time.Time
	Modules    map[string]*ModuleProgress
}

// JobProgress is the full progress snapshot for one enrichment job.
type JobProgress struct {
	JobID       string
	Domain      string
	StartedAt   time.Time
	UpdatedAt   time.Time
	FinishedAt  time.Time
	Done        bool
	Aborted     bool
	AbortedWave int
	Waves       map[int]*WaveProgress
}

// Tracker owns the mutable progress state for one job and fans out events
// to any number of subscribers.
type Tracker struct {
	mu            sync.Mutex
	job           *JobProgress
	subscribers   map[int]chan Event
	nextSubID     int
	droppedEvents map[int]int
}

// Event is what a subscriber receives: the full job snapshot at the point
// the underlying orchestrator event fired.
type Event struct {
	Job JobProgress
	Raw enrichment.Event
}

// NewTracker creates a tracker seeded with an empty progress record.
func NewTracker(jobID, domain string) *Tracker {
	return &Tracker{
		job: &JobProgress{
			JobID:     jobID,
			Domain:    domain,
			StartedAt: time.Now().UTC(),
			Waves:     map[int]*WaveProgress{},
		},
		subscribers:   map[int]chan Event{},
		droppedEvents: map[int]int{},
	}
}

// HandleEvent is an enrichment.ProgressFunc adapter: call
// tracker.HandleEvent as the emit callback passed to Orchestrator.Enrich.
func (t *Tracker) HandleEvent(evt enrichment.Event) {
	t.mu.Lock()
	wave := t.job.Waves[evt.Wave]
	if wave == nil && evt.Wave > 0 {
		wave = &WaveProgress{Wave: evt.Wave, Modules: map[string]*ModuleProgress{}}
		t.job.Waves[evt.Wave] = wave
	}

	switch evt.Kind {
	case enrichment.EventWaveStarted:
		wave.StartedAt = evt.At
	case enrichment.EventWaveFinished:
		wave.FinishedAt = evt.At
	case enrichment.EventModuleStarted:
		wave.Modules[evt.ModuleID] = &ModuleProgress{ModuleID: evt.ModuleID, Wave: evt.Wave, Status: modules.StatusRunning, StartedAt: evt.At}
	case enrichment.EventModuleFinished:
		mp := wave.Modules[evt.ModuleID]
		if mp == nil {
			mp = &ModuleProgress{ModuleID: evt.ModuleID, Wave: evt.Wave}
			wave.Modules[evt.ModuleID] = mp
		}
		mp.Status = evt.Status
		mp.FinishedAt = evt.At
	case enrichment.EventJobAborted:
		t.job.Aborted = true
		t.job.AbortedWave = evt.Wave
	}

	t.job.UpdatedAt = evt.At
	snapshot := t.snapshotLocked()
	subs := make([]chan Event, 0, len(t.subscribers))
	ids := make([]int, 0, len(t.subscribers))
	for id, ch := range t.subscribers {
		subs = append(subs, ch)
		ids = append(ids, id)
	}
	t.mu.Unlock()

	event := Event{Job: snapshot, Raw: evt}
	for i, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop the oldest buffered event to make room, then retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
				t.mu.Lock()
				t.droppedEvents[ids[i]]++
				t.mu.Unlock()
			}
		}
	}
}

// MarkDone finalizes the job snapshot once the orchestrator returns.
func (t *Tracker) MarkDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.Done = true
	t.job.FinishedAt = time.Now().UTC()
}

// Snapshot returns a copy of the current job progress.
func (t *Tracker) Snapshot() JobProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() JobProgress {
	wavesCopy := make(map[int]*WaveProgress, len(t.job.Waves))
	for w, wp := range t.job.Waves {
		modulesCopy := make(map[string]*ModuleProgress, len(wp.Modules))
		for id, mp := range wp.Modules {
			cp := *mp
			modulesCopy[id] = &cp
		}
		wavesCopy[w] = &WaveProgress{Wave: wp.Wave, StartedAt: wp.StartedAt, FinishedAt: wp.FinishedAt, Modules: modulesCopy}
	}
	job := *t.job
	job.Waves = wavesCopy
	return job
}

// Subscribe registers a new channel receiving every future event. The
// returned cancel func must be called to unregister and free the channel.
func (t *Tracker) Subscribe() (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSubID
	t.nextSubID++
	ch := make(chan Event, subscriberCapacity)
	t.subscribers[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subscribers, id)
		delete(t.droppedEvents, id)
	}
}

// DroppedEvents reports how many events have been dropped due to a full
// buffer, summed across every current subscriber channel.
func (t *Tracker) DroppedEvents() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.droppedEvents {
		total += n
	}
	return total
}
