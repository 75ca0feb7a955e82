package backup

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/backstock/internal/config"
	"github.com/dukerupert/backstock/internal/database"
	"github.com/dukerupert/backstock/internal/model"
	"github.com/dukerupert/backstock/internal/store"
)

type fakeS3 struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	bodies  map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = make(map[string][]byte)
	}
	f.puts = append(f.puts, *input.Key)
	f.bodies[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupManager(t *testing.T) (*Manager, *fakeS3, *store.BackupStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	cfg := config.Backup{
		Bucket:        "test-bucket",
		Region:        "auto",
		AccessKey:     "key",
		SecretKey:     "secret",
		Passphrase:    "test-passphrase",
		RetentionDays: 30,
	}
	m := NewManager(cfg, db, bs, nil, testLogger())

	fake := &fakeS3{}
	m.client = fake
	return m, fake, bs
}

func TestManagerDisabled(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(config.Backup{}, db, store.NewBackupStore(db), nil, testLogger())
	if m.Enabled() {
		t.Error("manager without credentials should be disabled")
	}
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want disabled", m.Status().State)
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("RunNow on disabled manager should fail")
	}

	// Start/Stop on a disabled manager are no-ops.
	m.Start(context.Background())
	m.Stop()
}

func TestRunNow(t *testing.T) {
	m, fake, bs := setupManager(t)

	if !m.Enabled() {
		t.Fatal("manager should be enabled")
	}

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if id == 0 {
		t.Error("expected a backup record id")
	}

	if len(fake.puts) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(fake.puts))
	}
	key := fake.puts[0]
	if len(fake.bodies[key]) == 0 {
		t.Error("uploaded object should not be empty")
	}

	backups, err := bs.List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup record, got %d", len(backups))
	}
	if backups[0].Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", backups[0].Status)
	}
	if backups[0].SizeBytes != int64(len(fake.bodies[key])) {
		t.Errorf("size_bytes = %d, want %d", backups[0].SizeBytes, len(fake.bodies[key]))
	}

	status := m.Status()
	if status.State != StateIdle {
		t.Errorf("state after backup = %q, want idle", status.State)
	}
	if status.LastBackup == nil {
		t.Error("last_backup should be set")
	}
}

func TestRunNowStatusCallback(t *testing.T) {
	m, _, _ := setupManager(t)

	var mu sync.Mutex
	var states []State
	m.callback = func(s Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	}

	if _, err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run backup: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 {
		t.Fatalf("expected at least 2 state changes, got %v", states)
	}
	if states[0] != StateRunning {
		t.Errorf("first state = %q, want running", states[0])
	}
	if states[len(states)-1] != StateIdle {
		t.Errorf("final state = %q, want idle", states[len(states)-1])
	}
}

func TestCleanupRetention(t *testing.T) {
	m, fake, bs := setupManager(t)

	// One completed record "now" — not yet past retention, must survive.
	rec, err := bs.Create("recent.db.gz.enc", "backups/recent.db.gz.enc")
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if err := bs.MarkCompleted(rec.ID, 100); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	if err := m.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if len(fake.deletes) != 0 {
		t.Errorf("recent backup should not be deleted, got %v", fake.deletes)
	}

	backups, err := bs.List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected 1 surviving record, got %d", len(backups))
	}
}
