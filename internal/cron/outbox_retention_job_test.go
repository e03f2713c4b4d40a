package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/veltaedu/velta-backend/pkg/logger"
)

type fakeRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestOutboxRetentionJob(t *testing.T) {
	repo := &fakeRetentionRepo{deleted: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repository: repo,
		Retention:  10,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	before := time.Now().UTC().Add(-10 * 24 * time.Hour)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if repo.cutoff.Before(before.Add(-time.Minute)) || repo.cutoff.After(time.Now().UTC().Add(-10*24*time.Hour).Add(time.Minute)) {
		t.Fatalf("unexpected cutoff %s", repo.cutoff)
	}
}

func TestOutboxRetentionJobDefaults(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repository: &fakeRetentionRepo{},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "outbox-retention" {
		t.Fatalf("unexpected job name %s", job.Name())
	}
}
