package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// JobFunc performs one pass of a recurring background task. The returned
// count is informational, typically the number of records the pass touched.
type JobFunc func(ctx context.Context) (int, error)

// Job couples a named JobFunc with its tick interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
}

// Scheduler drives recurring jobs on independent tickers. Each job is
// single-flight: when a pass is still running at the next tick, that tick is
// skipped instead of queueing a second pass behind it.
type Scheduler struct {
	jobs         []Job
	initialDelay time.Duration
	log          *zap.Logger
	metrics      *jobMetrics

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type jobMetrics struct {
	runs     *prometheus.CounterVec
	skips    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newJobMetrics(reg prometheus.Registerer) *jobMetrics {
	return &jobMetrics{
		runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Completed scheduler job passes.",
		}, []string{"job"}),
		skips: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_skips_total",
			Help: "Ticks skipped because the previous pass was still running.",
		}, []string{"job"}),
		failures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_failures_total",
			Help: "Scheduler job passes that returned an error.",
		}, []string{"job"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Scheduler job pass duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// New constructs a Scheduler. A nil registerer disables metrics registration,
// which keeps repeated construction in tests from colliding on the default
// registry.
func New(initialDelay time.Duration, log *zap.Logger, reg prometheus.Registerer, jobs ...Job) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	var metrics *jobMetrics
	if reg != nil {
		metrics = newJobMetrics(reg)
	}

	return &Scheduler{
		jobs:         jobs,
		initialDelay: initialDelay,
		log:          log,
		metrics:      metrics,
	}
}

// Start launches one goroutine per job. It returns immediately; Stop waits
// for in-flight passes to finish.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			s.log.Warn("skipping misconfigured scheduler job", zap.String("job", job.Name))
			continue
		}

		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
}

// Stop cancels all job loops and blocks until running passes return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	if s.initialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.initialDelay):
		}
	}

	var inFlight sync.Mutex
	var passes sync.WaitGroup
	defer passes.Wait()

	s.spawnPass(ctx, job, &inFlight, &passes)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawnPass(ctx, job, &inFlight, &passes)
		}
	}
}

// spawnPass starts a pass unless one is already in flight for this job.
func (s *Scheduler) spawnPass(ctx context.Context, job Job, inFlight *sync.Mutex, passes *sync.WaitGroup) {
	if !inFlight.TryLock() {
		s.log.Debug("previous pass still running, skipping tick", zap.String("job", job.Name))
		if s.metrics != nil {
			s.metrics.skips.WithLabelValues(job.Name).Inc()
		}
		return
	}

	passes.Add(1)
	go func() {
		defer passes.Done()
		defer inFlight.Unlock()
		s.runOnce(ctx, job)
	}()
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	count, err := job.Run(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.runs.WithLabelValues(job.Name).Inc()
		s.metrics.duration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
		if err != nil {
			s.metrics.failures.WithLabelValues(job.Name).Inc()
		}
	}

	if err != nil {
		s.log.Error("scheduler job pass failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}

	s.log.Debug("scheduler job pass finished",
		zap.String("job", job.Name),
		zap.Int("count", count),
		zap.Duration("elapsed", elapsed))
}
