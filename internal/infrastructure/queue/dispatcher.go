package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher runs identity resolutions on a fixed set of workers, sharded by
// session id so that all jobs of one session land on the same worker.
type Dispatcher struct {
	workers []chan ports.ResolveJob
	log     zerolog.Logger
}

var _ ports.ResolveScheduler = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ResolveJob, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ResolveJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Schedule hands the job to the worker responsible for its session. It never
// blocks the request path: when that worker's queue is full the job runs on
// its own goroutine instead.
func (d *Dispatcher) Schedule(job ports.ResolveJob) {
	select {
	case d.workers[d.shardIndex(job.SessionID())] <- job:
	default:
		d.log.Warn().Str("session", short(job.SessionID())).Msg("resolve queue full, running inline")
		go job.Resolve(context.Background())
	}
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sid string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sid))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ResolveJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			start := time.Now()
			job.Resolve(ctx)
			d.log.Debug().
				Str("session", short(job.SessionID())).
				Int("worker_id", id).
				Dur("elapsed", time.Since(start)).
				Msg("session resolved")
		}
	}
}

func short(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
