package conversion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoxhq/DocFox/app/models"
)

func TestSweepTimesOutOverdueJobs(t *testing.T) {
	doc := pdfDoc(1, 7)
	f := newFixture(t, &stubBackend{}, doc) // async backend, job stays processing
	f.jobs.inputs[1] = []models.Document{doc}

	job, err := f.manager.Create(f.user, CreateRequest{Type: "convert", OutputFormat: "docx", DocumentUUIDs: []string{doc.UUID}})
	require.NoError(t, err)
	require.NoError(t, f.manager.Dispatch(context.Background(), job, "tok"))

	// Backdate the deadline entry so the sweep sees it as overdue
	f.mirror.deadlines[job.UUID] = time.Now().Add(-time.Minute)

	sweeper := NewSweeper(f.manager)
	sweeper.sweep()

	stored, _ := f.jobs.GetByUUID(job.UUID)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Equal(t, "processing timed out", stored.ErrorMessage)
	assert.Empty(t, f.mirror.deadlines)
	assert.Len(t, f.notifier.failed, 1)
}

// A job whose index entry was lost is still caught by the database scan.
func TestSweepDatabaseFallback(t *testing.T) {
	doc := pdfDoc(1, 7)
	f := newFixture(t, &stubBackend{}, doc)
	f.jobs.inputs[1] = []models.Document{doc}

	job, err := f.manager.Create(f.user, CreateRequest{Type: "convert", OutputFormat: "docx", DocumentUUIDs: []string{doc.UUID}})
	require.NoError(t, err)
	require.NoError(t, f.manager.Dispatch(context.Background(), job, "tok"))

	delete(f.mirror.deadlines, job.UUID)
	stale := time.Now().Add(-2 * time.Hour)
	f.jobs.jobs[job.UUID].DispatchedAt = &stale

	sweeper := NewSweeper(f.manager)
	sweeper.sweep()

	stored, _ := f.jobs.GetByUUID(job.UUID)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
}

func TestSweepLeavesHealthyJobsAlone(t *testing.T) {
	doc := pdfDoc(1, 7)
	f := newFixture(t, &stubBackend{}, doc)
	f.jobs.inputs[1] = []models.Document{doc}

	job, err := f.manager.Create(f.user, CreateRequest{Type: "convert", OutputFormat: "docx", DocumentUUIDs: []string{doc.UUID}})
	require.NoError(t, err)
	require.NoError(t, f.manager.Dispatch(context.Background(), job, "tok"))

	sweeper := NewSweeper(f.manager)
	sweeper.sweep()

	stored, _ := f.jobs.GetByUUID(job.UUID)
	assert.Equal(t, models.JobStatusProcessing, stored.Status, "a job within its deadline is untouched")
}

func TestSweeperStartStopIdempotent(t *testing.T) {
	f := newFixture(t, &stubBackend{})
	sweeper := NewSweeper(f.manager)

	sweeper.Start()
	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}
