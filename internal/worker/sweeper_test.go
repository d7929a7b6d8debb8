package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/www6v/notestudio/internal/model"
	"github.com/www6v/notestudio/internal/task"
)

type fakeLister struct {
	mu           sync.Mutex
	batch        []model.Artifact
	err          error
	calls        int
	gotOlderThan time.Time
	gotLimit     int
}

func (f *fakeLister) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]model.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotOlderThan = olderThan
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	batch := f.batch
	f.batch = nil
	return batch, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeGenerator) Generate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

func (f *fakeGenerator) generated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func TestSweepRequeuesStale(t *testing.T) {
	lister := &fakeLister{batch: []model.Artifact{
		{ID: "art-1", Kind: model.KindMindMap},
		{ID: "art-2", Kind: model.KindSlideDeck},
	}}
	gen := &fakeGenerator{}
	s := NewSweeper(lister, task.NewRunner(0, 0, 0), gen, time.Second, 2*time.Minute)

	n, err := s.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"art-1", "art-2"}, gen.generated())

	assert.Equal(t, sweepBatchSize, lister.gotLimit)
	assert.WithinDuration(t, time.Now().Add(-2*time.Minute), lister.gotOlderThan, 2*time.Second)
}

func TestSweepNothingStale(t *testing.T) {
	lister := &fakeLister{}
	gen := &fakeGenerator{}
	s := NewSweeper(lister, task.NewRunner(0, 0, 0), gen, time.Second, time.Minute)

	n, err := s.sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, gen.generated())
}

func TestSweepListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("db locked")}
	gen := &fakeGenerator{}
	s := NewSweeper(lister, task.NewRunner(0, 0, 0), gen, time.Second, time.Minute)

	_, err := s.sweep(context.Background())
	require.Error(t, err)
	assert.Empty(t, gen.generated())
}

func TestStartStopsOnCancel(t *testing.T) {
	lister := &fakeLister{}
	s := NewSweeper(lister, task.NewRunner(0, 0, 0), &fakeGenerator{}, 5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return lister.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestNewSweeperDefaults(t *testing.T) {
	s := NewSweeper(&fakeLister{}, task.NewRunner(0, 0, 0), &fakeGenerator{}, 0, 0)
	assert.Equal(t, 15*time.Second, s.interval)
	assert.Equal(t, time.Minute, s.staleAfter)
}
