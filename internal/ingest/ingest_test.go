package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/core"
)

type memQueue struct {
	mu   sync.Mutex
	jobs []core.Job
}

func (q *memQueue) Enqueue(_ context.Context, job core.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Shutdown(context.Context) {}

func (q *memQueue) snapshot() []core.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]core.Job(nil), q.jobs...)
}

func TestModeForPath(t *testing.T) {
	assert.Equal(t, constants.ModeCertificate, ModeForPath("/in/certificate/a.zip", constants.ModeTranscript))
	assert.Equal(t, constants.ModeTranscript, ModeForPath("/in/misc/a.zip", constants.ModeTranscript))
	assert.True(t, IsArchive("x/Y.ZIP"))
	assert.False(t, IsArchive("x/y.jpg"))
}

func TestInboxSubmitDeduplicates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certificate")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, "dot1.zip")
	require.NoError(t, os.WriteFile(p, []byte("PK"), 0o644))

	q := &memQueue{}
	in := NewInbox(q, constants.ModeTranscript, nil)
	ctx := context.Background()

	job, queued, err := in.Submit(ctx, p)
	require.NoError(t, err)
	require.True(t, queued)
	assert.Equal(t, constants.ModeCertificate, job.Mode)
	assert.Equal(t, "dot1.xlsx", job.ExcelFilename)
	assert.NotEmpty(t, job.SessionID)

	_, queued, err = in.Submit(ctx, p)
	require.NoError(t, err)
	assert.False(t, queued)

	_, queued, err = in.Submit(ctx, filepath.Join(dir, "notes.txt"))
	require.Error(t, err)
	assert.False(t, queued)

	st := in.Stats()
	assert.Equal(t, uint32(3), st.Seen)
	assert.Equal(t, uint32(1), st.Queued)
	assert.Equal(t, uint32(1), st.Skipped)
	assert.Equal(t, uint32(1), st.Failed)
	assert.Len(t, q.snapshot(), 1)
}

func TestWatcherFeedsInbox(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.zip")
	require.NoError(t, os.WriteFile(existing, []byte("PK"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, errs, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 100 * time.Millisecond}, nil)
	require.NoError(t, err)

	q := &memQueue{}
	in := NewInbox(q, constants.ModeTranscript, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		in.Run(ctx, paths, errs)
	}()

	fresh := filepath.Join(root, "new.zip")
	require.NoError(t, os.WriteFile(fresh, []byte("PK\x03\x04"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(q.snapshot()) == 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	var got []string
	for _, j := range q.snapshot() {
		got = append(got, filepath.Base(j.ArchivePath))
	}
	assert.ElementsMatch(t, []string{"old.zip", "new.zip"}, got)
}
