// Package scheduler runs the periodic reminder sweep.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"purchaseflow/internal/service"

	"github.com/robfig/cron/v3"
)

// Sweeper is the piece of the reminder service the scheduler drives.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

func New(sweeper Sweeper, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.Local)),
		sweeper: sweeper,
		timeout: timeout,
	}
}

// Start registers the sweep under spec (standard 5-field cron syntax) and
// starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	s.cron.Start()
	log.Printf("reminder sweep scheduled: %s", spec)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce is the cron job: one sweep bounded by the scheduler timeout.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		log.Printf("reminder sweep: %v", err)
	}
}

// Sweep runs one sweep now. It shares the overlap guard with the cron job
// and returns service.ErrSweepRunning instead of starting a second sweep.
func (s *Scheduler) Sweep(ctx context.Context) (service.SweepResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return service.SweepResult{}, service.ErrSweepRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	res, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to sweep reminders: %w", err)
	}
	log.Printf("reminder sweep: %d open, %d overdue, %d reminded, %d failed", res.Open, res.Overdue, res.Reminded, res.Failed)
	return res, nil
}
