package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper is the job the scheduler runs
type Sweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// OverdueScheduler periodically flips unpaid invoices past their due date
type OverdueScheduler struct {
	cronScheduler *cron.Cron
	sweeper       Sweeper
	timeout       time.Duration
	jobID         cron.EntryID
}

func NewOverdueScheduler(sweeper Sweeper) *OverdueScheduler {
	return &OverdueScheduler{
		cronScheduler: cron.New(cron.WithSeconds()),
		sweeper:       sweeper,
		timeout:       time.Minute,
	}
}

// Start registers the sweep under schedule, a six-field cron spec
// ("0 0 2 * * *" = 02:00:00 every day).
func (s *OverdueScheduler) Start(schedule string) error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() { s.RunOnce() })
	if err != nil {
		return fmt.Errorf("error scheduling overdue sweep: %w", err)
	}
	s.cronScheduler.Start()
	log.Printf("Overdue sweep scheduled (%s)", schedule)
	return nil
}

// RunOnce performs one sweep immediately
func (s *OverdueScheduler) RunOnce() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		log.Printf("Overdue sweep failed after %d invoices: %v", n, err)
		return n
	}
	if n > 0 {
		log.Printf("Overdue sweep marked %d invoices overdue", n)
	}
	return n
}

func (s *OverdueScheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		log.Println("Overdue sweep stopped")
	}
}
