package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/batch"
	"github.com/aristath/sentinel/internal/citationstore"
	"github.com/aristath/sentinel/internal/enrichment"
	"github.com/aristath/sentinel/internal/snapshotstore"
)

// Watchlist is the persisted list of domains re-enriched on a nightly
// cadence, stored at DataDir/watchlist.json as a JSON object whose
// "domains" field holds the domain list.
type Watchlist struct {
	Domains []string `json:"domains"`
}

// LoadWatchlist reads the watchlist file, returning an empty watchlist
// (not an error) when the file does not yet exist.
func LoadWatchlist(path string) (Watchlist, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Watchlist{}, nil
	}
	if err != nil {
		return Watchlist{}, err
	}
	var wl Watchlist
	if err := json.Unmarshal(data, &wl); err != nil {
		return Watchlist{}, err
	}
	return wl, nil
}

// WatchlistJobConfig wires the nightly re-enrichment job to the rest of
// the running system.
type WatchlistJobConfig struct {
	Log            zerolog.Logger
	WatchlistPath  string
	Batch          *batch.BatchOrchestrator
	CitationStore  *citationstore.Store
	SnapshotStore  *snapshotstore.Store // nil disables snapshotting
	RequestTimeout time.Duration
}

// WatchlistJob re-enriches every domain on the watchlist and persists
// each result to the citation ledger (and, when configured, to S3).
type WatchlistJob struct {
	cfg WatchlistJobConfig
	log zerolog.Logger
}

// NewWatchlistJob builds a nightly re-enrichment job.
func NewWatchlistJob(cfg WatchlistJobConfig) *WatchlistJob {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Minute
	}
	return &WatchlistJob{
		cfg: cfg,
		log: cfg.Log.With().Str("job", "watchlist_reenrichment").Logger(),
	}
}

// Name implements Job.
func (j *WatchlistJob) Name() string { return "watchlist_reenrichment" }

// Run implements Job: it re-enriches every watchlisted domain and records
// the outcome. A domain-level failure is logged and does not abort the
// rest of the batch.
func (j *WatchlistJob) Run() error {
	wl, err := LoadWatchlist(j.cfg.WatchlistPath)
	if err != nil {
		return err
	}
	if len(wl.Domains) == 0 {
		j.log.Debug().Msg("watchlist is empty, nothing to re-enrich")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.RequestTimeout)
	defer cancel()

	results := j.cfg.Batch.EnrichBatch(ctx, wl.Domains, nil, func(res enrichment.Result) {
		jobID := "nightly-" + res.Domain + "-" + res.FinishedAt.Format("20060102150405")
		if j.cfg.CitationStore != nil {
			if err := j.cfg.CitationStore.RecordAll(jobID, res.Modules); err != nil {
				j.log.Error().Err(err).Str("domain", res.Domain).Msg("failed to record nightly result")
			}
		}
		if j.cfg.SnapshotStore != nil {
			if err := j.cfg.SnapshotStore.Put(ctx, jobID, res.Domain, res.Modules); err != nil {
				j.log.Error().Err(err).Str("domain", res.Domain).Msg("failed to snapshot nightly result")
			}
		}
	})

	j.log.Info().Int("domains", len(results)).Msg("nightly watchlist re-enrichment complete")
	return nil
}
