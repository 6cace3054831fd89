package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingJob struct {
	sid  string
	wg   *sync.WaitGroup
	mu   *sync.Mutex
	runs map[string]int
}

func (j countingJob) SessionID() string { return j.sid }

func (j countingJob) Resolve(context.Context) {
	j.mu.Lock()
	j.runs[j.sid]++
	j.mu.Unlock()
	j.wg.Done()
}

func TestDispatcher_RunsScheduledJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(4, zerolog.Nop())
	d.Start(ctx)

	var wg sync.WaitGroup
	var mu sync.Mutex
	runs := make(map[string]int)
	sids := []string{"a", "b", "c", "d", "e", "f"}
	for _, sid := range sids {
		wg.Add(1)
		d.Schedule(countingJob{sid: sid, wg: &wg, mu: &mu, runs: runs})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("jobs did not complete")
	}
	for _, sid := range sids {
		if runs[sid] != 1 {
			t.Fatalf("expected one run for %s, got %d", sid, runs[sid])
		}
	}
}

func TestDispatcher_FullQueueFallsBack(t *testing.T) {
	// Workers are never started, so only the fallback path can run jobs.
	d := NewDispatcher(1, zerolog.Nop())

	var wg sync.WaitGroup
	var mu sync.Mutex
	runs := make(map[string]int)
	for i := 0; i < channelBuffer; i++ {
		d.workers[0] <- countingJob{sid: "queued", wg: &sync.WaitGroup{}, mu: &mu, runs: runs}
	}

	wg.Add(1)
	d.Schedule(countingJob{sid: "overflow", wg: &wg, mu: &mu, runs: runs})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("overflow job did not run")
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, zerolog.Nop())
	for _, sid := range []string{"", "x", "3f1c0c7e-0000-4000-8000-000000000001"} {
		i := d.shardIndex(sid)
		if i < 0 || i >= 8 {
			t.Fatalf("index out of range: %d", i)
		}
		if d.shardIndex(sid) != i {
			t.Fatalf("shard index must be deterministic")
		}
	}
}
