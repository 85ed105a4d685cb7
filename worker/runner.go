package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sheenubhat/network-automation-scripts/model"
	"github.com/sheenubhat/network-automation-scripts/store"
)

const (
	DefaultWorkers = 4
	DefaultTimeout = 30 * time.Second
)

// Config holds everything a Runner needs beyond the inventory itself.
// Session transcript capture is off unless SessionLogDir is set.
type Config struct {
	SessionLogDir string
	Workers       int
	Timeout       time.Duration
}

// Runner is the backup orchestrator: it drives one session per device
// through a bounded worker pool and aggregates per-device outcomes. One
// device's failure never aborts the batch.
type Runner struct {
	exec *executor
	conf *Config
	log  zerolog.Logger
}

func NewRunner(conf *Config, artifacts store.Store, log zerolog.Logger) *Runner {
	if conf.Workers <= 0 {
		conf.Workers = DefaultWorkers
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}
	return &Runner{
		exec: &executor{
			store:         artifacts,
			sessionLogDir: conf.SessionLogDir,
			timeout:       conf.Timeout,
			dial:          dialSSH,
			log:           log,
		},
		conf: conf,
		log:  log,
	}
}

// Run backs up every device once, in a pool of at most conf.Workers
// concurrent sessions, and returns the summary in inventory order. Exactly
// one attempt is recorded per inventory entry, duplicates included.
// Cancelling ctx stops new work; in-flight sessions observe it via their
// own deadlines.
func (r *Runner) Run(ctx context.Context, devices []*model.Device) *model.Summary {
	type workItem struct {
		index  int
		device *model.Device
	}
	workCh := make(chan workItem)
	attempts := make([]*model.Attempt, len(devices))
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := r.conf.Workers
	if workers > len(devices) {
		workers = len(devices)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				attempt := r.exec.backupDevice(ctx, item.device, item.index)
				mu.Lock()
				attempts[item.index] = attempt
				mu.Unlock()
			}
		}()
	}

	abandon := func(from int) {
		r.log.Warn().Msg("run cancelled, abandoning remaining devices")
		start := time.Now()
		mu.Lock()
		defer mu.Unlock()
		for j := from; j < len(devices); j++ {
			if attempts[j] == nil {
				attempts[j] = model.NewFailedAttempt(devices[j].Name, j,
					model.FailureTransport, ctx.Err(), start)
			}
		}
	}
feed:
	for i, device := range devices {
		if ctx.Err() != nil {
			abandon(i)
			break
		}
		select {
		case workCh <- workItem{index: i, device: device}:
		case <-ctx.Done():
			abandon(i)
			break feed
		}
	}
	close(workCh)
	wg.Wait()

	summary := model.NewSummary(compactAttempts(attempts))
	r.log.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).
		Strs("failed_devices", summary.FailedNames()).Msg("backup run complete")
	return summary
}

// RunOnSchedule runs a batch immediately, then again at every schedule
// tick until ctx is cancelled.
func (r *Runner) RunOnSchedule(ctx context.Context, sched model.Schedule, devices []*model.Device) {
	for {
		r.Run(ctx, devices)
		next := sched.Next(time.Now())
		if next.IsZero() {
			r.log.Warn().Msg("schedule has no next run, stopping")
			return
		}
		r.log.Info().Time("next_run", next).Msg("waiting for next scheduled run")
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info().Msg("scheduled runs stopped")
			return
		case <-timer.C:
		}
	}
}

// compactAttempts drops nil slots. A cancelled feed loop can race a worker
// finishing the same index; every non-cancelled index is always populated.
func compactAttempts(attempts []*model.Attempt) []*model.Attempt {
	out := make([]*model.Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt != nil {
			out = append(out, attempt)
		}
	}
	return out
}
