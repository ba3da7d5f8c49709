package question

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrDownloadBusy is returned when a bulk download run is already queued.
var ErrDownloadBusy = errors.New("offline download already in progress")

// DownloadJob names one bulk offline-download request.
type DownloadJob struct {
	Subjects []string
	Count    int
}

// ProgressNotifier receives per-subject progress during a bulk download.
type ProgressNotifier interface {
	DownloadProgress(subject string, completed, total, stored int, failed bool)
	DownloadComplete(succeeded, failed int)
}

// PrefetchWorker walks subjects sequentially, resolving and unioning each
// into the offline store. The fixed inter-subject delay keeps the
// third-party provider from rate-limiting bulk runs. One job at a time;
// there is no scheduler.
type PrefetchWorker struct {
	service  *Service
	notifier ProgressNotifier
	jobs     chan DownloadJob
	inFlight atomic.Bool
	delay    time.Duration
	logger   zerolog.Logger
}

func NewPrefetchWorker(service *Service, notifier ProgressNotifier, delay time.Duration, logger zerolog.Logger) *PrefetchWorker {
	if delay <= 0 {
		delay = 750 * time.Millisecond
	}
	return &PrefetchWorker{
		service:  service,
		notifier: notifier,
		jobs:     make(chan DownloadJob, 1),
		delay:    delay,
		logger:   logger.With().Str("component", "offline_prefetch_worker").Logger(),
	}
}

// Enqueue submits a job without blocking; ErrDownloadBusy when one is
// already pending or running. The in-flight check covers the window where
// the worker has drained the channel but is still walking subjects.
func (w *PrefetchWorker) Enqueue(job DownloadJob) error {
	if w.inFlight.Load() {
		return ErrDownloadBusy
	}
	select {
	case w.jobs <- job:
		return nil
	default:
		return ErrDownloadBusy
	}
}

// Run blocks until context cancellation.
func (w *PrefetchWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-w.jobs:
			w.handle(ctx, job)
		}
	}
}

func (w *PrefetchWorker) handle(ctx context.Context, job DownloadJob) {
	w.inFlight.Store(true)
	defer w.inFlight.Store(false)

	var succeeded, failed int
	for i, subject := range job.Subjects {
		stored, err := w.service.DownloadSubject(ctx, subject, job.Count)
		if err != nil {
			failed++
			w.logger.Warn().Err(err).Str("subject", subject).Msg("offline download failed")
		} else {
			succeeded++
			w.logger.Info().Str("subject", subject).Int("stored", stored).Msg("offline download stored")
		}
		w.notifyProgress(subject, i+1, len(job.Subjects), stored, err != nil)

		if i < len(job.Subjects)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.delay):
			}
		}
	}
	if w.notifier != nil {
		w.notifier.DownloadComplete(succeeded, failed)
	}
}

func (w *PrefetchWorker) notifyProgress(subject string, completed, total, stored int, failed bool) {
	if w.notifier == nil {
		return
	}
	w.notifier.DownloadProgress(subject, completed, total, stored, failed)
}
