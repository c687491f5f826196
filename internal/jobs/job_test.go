package jobs

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kraig/internal/models"
)

func TestJob_SubscribeDeliversHistoryAndLiveLines(t *testing.T) {
	job := newJob("abc12345", "/tmp/job", "/tmp/job/magic_link.txt", models.ListingDraft{})

	job.appendLine("line one")
	job.appendLine("line two")

	history, ch := job.Subscribe()
	defer job.Unsubscribe(ch)

	assert.Equal(t, []string{"line one", "line two"}, history)

	job.appendLine("line three")
	select {
	case line := <-ch:
		assert.Equal(t, "line three", line)
	case <-time.After(time.Second):
		t.Fatal("expected live line on subscriber channel")
	}
}

func TestJob_BufferDropsOldestLines(t *testing.T) {
	job := newJob("abc12345", "/tmp/job", "/tmp/job/magic_link.txt", models.ListingDraft{})

	for i := 0; i < logBuffer+10; i++ {
		job.appendLine(fmt.Sprintf("line %d", i))
	}

	history, ch := job.Subscribe()
	job.Unsubscribe(ch)

	require.Len(t, history, logBuffer)
	assert.Equal(t, "line 10", history[0])
	assert.Equal(t, fmt.Sprintf("line %d", logBuffer+9), history[len(history)-1])
}

func TestJob_SlowSubscriberDoesNotBlock(t *testing.T) {
	job := newJob("abc12345", "/tmp/job", "/tmp/job/magic_link.txt", models.ListingDraft{})

	_, ch := job.Subscribe()
	defer job.Unsubscribe(ch)

	// Nobody reads ch; appends must still return
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			job.appendLine("flood")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("appendLine blocked on a slow subscriber")
	}
}

func TestJob_FinishSetsStatusAndClosesDone(t *testing.T) {
	job := newJob("abc12345", "/tmp/job", "/tmp/job/magic_link.txt", models.ListingDraft{})
	assert.Equal(t, models.JobStatusRunning, job.Status())

	job.finish(0)
	assert.Equal(t, models.JobStatusComplete, job.Status())
	assert.Equal(t, 0, job.ExitCode())
	assert.False(t, job.CompletedAt().IsZero())

	select {
	case <-job.Done():
	default:
		t.Fatal("done channel should be closed after finish")
	}

	failed := newJob("def67890", "/tmp/job", "/tmp/job/magic_link.txt", models.ListingDraft{})
	failed.finish(1)
	assert.Equal(t, models.JobStatusFailed, failed.Status())
	assert.Equal(t, 1, failed.ExitCode())
}

func TestJob_Snapshot(t *testing.T) {
	draft := models.ListingDraft{Title: "Meta Quest Pro", Price: 650}
	job := newJob("abc12345", "/tmp/job", "/tmp/job/magic_link.txt", draft)
	job.finish(0)

	snap := job.Snapshot()
	assert.Equal(t, "abc12345", snap.ID)
	assert.Equal(t, models.JobStatusComplete, snap.Status)
	assert.Equal(t, draft, snap.Draft)
	assert.Equal(t, "/tmp/job/magic_link.txt", snap.MagicLinkFile)
}
