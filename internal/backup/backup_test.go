package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jmckenna/chorewheel/internal/database"
)

type fakeS3 struct {
	puts []s3.PutObjectInput
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, *input)
	return &s3.PutObjectOutput{}, nil
}

func newTestManager(t *testing.T, client s3Client) *Manager {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{S3: S3Config{Bucket: "household-backups"}}, db, nil, logger)
	m.client = client
	m.status.State = StateIdle
	return m
}

func TestManagerDisabledWithoutCredentials(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{}, db, nil, logger)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %s, want disabled", m.Status().State)
	}
	if err := m.RunNow(context.Background()); err == nil {
		t.Error("RunNow succeeded without configuration")
	}
}

func TestRunNowUploadsSnapshot(t *testing.T) {
	fake := &fakeS3{}
	m := newTestManager(t, fake)

	if err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("put count = %d, want 1", len(fake.puts))
	}
	put := fake.puts[0]
	if *put.Bucket != "household-backups" {
		t.Errorf("bucket = %q", *put.Bucket)
	}
	if !strings.HasPrefix(*put.Key, "snapshots/chorewheel-") {
		t.Errorf("key = %q", *put.Key)
	}

	status := m.Status()
	if status.State != StateIdle || status.LastBackup == nil {
		t.Errorf("status = %+v, want idle with last backup set", status)
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	m := newTestManager(t, fake)

	if err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %s, want error", m.Status().State)
	}
}

func TestStatusCallback(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var states []State
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{S3: S3Config{Bucket: "b"}}, db, func(s Status) {
		states = append(states, s.State)
	}, logger)
	m.client = &fakeS3{}
	m.status.State = StateIdle

	if err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}

	if len(states) != 2 || states[0] != StateRunning || states[1] != StateIdle {
		t.Errorf("callback states = %v, want [running idle]", states)
	}
}
