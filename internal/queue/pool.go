package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("dispatch pool is closed")

// Job is one unit of fire-and-forget work.
type Job struct {
	CampaignID string
	Key        string
	Run        func(ctx context.Context) error
}

// Outcome reports how a job ended. Err is non-nil for errors and panics.
type Outcome struct {
	CampaignID string
	Key        string
	Err        error
}

// Pool runs submitted jobs on a fixed number of workers. Submit only blocks
// when the buffer is full; it never waits for a job to finish.
type Pool struct {
	jobs      chan Job
	timeout   time.Duration
	onOutcome func(Outcome)
	log       *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts workers immediately. Every job runs under its own timeout
// derived from a pool-owned context, not from the submitter's.
func NewPool(workers, queueSize int, timeout time.Duration, onOutcome func(Outcome), log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if onOutcome == nil {
		onOutcome = func(Outcome) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:      make(chan Job, queueSize),
		timeout:   timeout,
		onOutcome: onOutcome,
		log:       log,
		baseCtx:   ctx,
		cancel:    cancel,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work(i)
	}
	return p
}

// Submit enqueues a job. ctx only bounds the wait for buffer space.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to drain. If ctx
// expires first, in-flight jobs are cancelled.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.onOutcome(Outcome{CampaignID: job.CampaignID, Key: job.Key, Err: p.run(job)})
	}
	p.log.Debug("dispatch worker stopped", "worker", id)
}

func (p *Pool) run(job Job) (err error) {
	ctx := p.baseCtx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Key, r)
		}
	}()
	return job.Run(ctx)
}
