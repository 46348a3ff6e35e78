// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"coinvest/internal/logging"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

// Job is one unit of periodic work. It receives a context bounded by jobTimeout.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func New() *Scheduler {
	log := logging.Named("scheduler")
	cl := cronLogger{log.Sugar()}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:  log,
	}
}

// Add registers job under spec ("@every 1m", "0 * * * *", ...).
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Warn("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	return errors.Wrapf(err, "schedule %s", name)
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
