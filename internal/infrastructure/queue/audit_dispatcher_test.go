package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventplanner/event-api/internal/core/domain"
)

type recordingRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	fail    bool
}

func (r *recordingRepo) Insert(_ context.Context, e domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("mongo down")
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingRepo) snapshot() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}

func TestAuditDispatcher_PreservesPerActorOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewAuditDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Record(domain.AuditEntry{Kind: domain.AuditLoginFailed, Username: "alice", Reason: fmt.Sprint(i)})
		d.Record(domain.AuditEntry{Kind: domain.AuditLoginFailed, Username: "bob", Reason: fmt.Sprint(i)})
	}
	cancel()
	d.Wait()

	byActor := map[string][]string{}
	for _, e := range repo.snapshot() {
		byActor[e.Username] = append(byActor[e.Username], e.Reason)
		assert.False(t, e.OccurredAt.IsZero())
	}
	require.Len(t, byActor["alice"], 50)
	require.Len(t, byActor["bob"], 50)
	for i := 0; i < 50; i++ {
		assert.Equal(t, fmt.Sprint(i), byActor["alice"][i])
		assert.Equal(t, fmt.Sprint(i), byActor["bob"][i])
	}
}

func TestAuditDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewAuditDispatcher(8, &recordingRepo{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("user-42"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}

func TestAuditDispatcher_DropsWhenFull(t *testing.T) {
	d := NewAuditDispatcher(1, &recordingRepo{}, zerolog.Nop())
	// Not started: nothing drains the buffer.
	for i := 0; i < channelBuffer+3; i++ {
		d.Record(domain.AuditEntry{Kind: domain.AuditTokenRejected})
	}
	assert.Equal(t, uint64(3), d.Dropped())
}

func TestAuditDispatcher_WriteFailureDoesNotStopWorker(t *testing.T) {
	repo := &recordingRepo{fail: true}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(domain.AuditEntry{Kind: domain.AuditLoginFailed, Username: "carol"})
	cancel()
	d.Wait()

	repo.mu.Lock()
	repo.fail = false
	repo.mu.Unlock()

	d.Start(context.Background())
	d.Record(domain.AuditEntry{Kind: domain.AuditLoginSucceeded, Username: "carol"})
	assert.Eventually(t, func() bool { return len(repo.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestNewAuditDispatcher_DefaultsWorkers(t *testing.T) {
	d := NewAuditDispatcher(0, &recordingRepo{}, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}
