// Package snapshotstore periodically uploads a completed enrichment job's
// full record to S3 for long-term retention, independent of the local
// citation ledger. Snapshotting is a best-effort side channel: a failed
// upload is logged and never fails the job itself.
package snapshotstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel/internal/modules"
)

// Snapshot is the wire shape uploaded to S3, keyed by job id.
type Snapshot struct {
	JobID      string                    `msgpack:"job_id"`
	Domain     string                    `msgpack:"domain"`
	FinishedAt time.Time                 `msgpack:"finished_at"`
	Records    []modules.PersistedRecord `msgpack:"records"`
}

// Store uploads snapshots to a configured S3 bucket/prefix.
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// New builds a Store from the default AWS credential chain and the given
// region. Returns (nil, nil) when bucket is empty, signaling that
// snapshotting is disabled rather than misconfigured.
func New(ctx context.Context, bucket, prefix, region string) (*Store, error) {
	if bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

// key builds the object key for a job's snapshot.
func (s *Store) key(jobID string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.msgpack", s.prefix, at.Format("2006/01/02"), jobID)
}

// Put encodes and uploads a snapshot for a completed job.
func (s *Store) Put(ctx context.Context, jobID, domain string, ctxResults modules.Context) error {
	records := make([]modules.PersistedRecord, 0, len(ctxResults))
	for _, r := range ctxResults {
		if r != nil {
			records = append(records, r.ToPersistedRecord())
		}
	}
	snap := Snapshot{JobID: jobID, Domain: domain, FinishedAt: time.Now().UTC(), Records: records}

	body, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(jobID, snap.FinishedAt)),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}
