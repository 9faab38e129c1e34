package cronjob

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper removes temporary files older than a given age.
type Sweeper interface {
	SweepOlderThan(age time.Duration) (int, error)
}

// Scheduler runs periodic housekeeping for the upload directory.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	ttl     time.Duration
	spec    string
	log     *logrus.Logger
}

// NewScheduler builds a scheduler that sweeps files older than ttl on every
// tick of spec (six-field cron syntax, seconds first).
func NewScheduler(sweeper Sweeper, ttl time.Duration, spec string, log *logrus.Logger) *Scheduler {
	if spec == "" {
		spec = "0 */15 * * * *"
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		ttl:     ttl,
		spec:    spec,
		log:     log,
	}
}

// AddJob registers another housekeeping task on its own cron spec. Call it
// before Start.
func (s *Scheduler) AddJob(spec, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.WithField("job", name).Debug("running housekeeping job")
		job()
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start initializes cron tasks
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}

	s.log.WithField("spec", s.spec).Info("upload cleanup scheduler started")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce sweeps stale uploads left behind by crashed or aborted requests.
func (s *Scheduler) RunOnce() {
	removed, err := s.sweeper.SweepOlderThan(s.ttl)
	if err != nil {
		s.log.WithError(err).Warn("upload cleanup failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("removed stale uploads")
	}
}
