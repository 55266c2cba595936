package enrichment

import (
	"context"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/platform/metrics"
	"street-screens-service/internal/ports"
	"sync"
	"time"
)

type Job struct {
	ScreenID    int64
	Coordinates domain.LatLng
}

type Outcome string

const (
	OutcomeWritten      Outcome = "written"
	OutcomeNoPayload    Outcome = "no_payload"
	OutcomeLookupFailed Outcome = "lookup_failed"
	OutcomeWriteFailed  Outcome = "write_failed"
	OutcomeDeadLetter   Outcome = "dead_letter"
	OutcomePanic        Outcome = "panic"
)

type Config struct {
	Workers       int
	QueueSize     int
	LookupTimeout time.Duration
	Language      string
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 45 * time.Second
	}
	if c.Language == "" {
		c.Language = "en"
	}
	return c
}

// Dispatcher runs enrichment jobs on a fixed pool of workers fed by a bounded
// queue. Jobs that do not fit are dead-lettered to the log. Outcomes are
// logged and counted, never reported back to the submitter.
type Dispatcher struct {
	provider ports.PlacesProvider
	writer   ports.PopularTimesWriter
	cfg      Config
	jobs     chan Job

	// OnOutcome, when set, is called after every job finishes.
	OnOutcome func(Job, Outcome)
}

func NewDispatcher(provider ports.PlacesProvider, writer ports.PopularTimesWriter, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		provider: provider,
		writer:   writer,
		cfg:      cfg,
		jobs:     make(chan Job, cfg.QueueSize),
	}
}

// Submit queues a job and returns immediately. It reports false when the
// queue is full and the job was dead-lettered.
func (d *Dispatcher) Submit(job Job) bool {
	select {
	case d.jobs <- job:
		metrics.EnrichmentQueueDepth.Set(float64(len(d.jobs)))
		return true
	default:
		logging.Error().
			Str("sink", "dead_letter").
			Int64("screen_id", job.ScreenID).
			Float64("lat", job.Coordinates.Lat).
			Float64("lng", job.Coordinates.Lng).
			Int("queue_size", cap(d.jobs)).
			Msg("enrichment queue full; job dropped")
		d.finish(job, OutcomeDeadLetter)
		return false
	}
}

// Serve runs the workers until ctx is cancelled. Queued jobs survive a
// restart of Serve.
func (d *Dispatcher) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-d.jobs:
					metrics.EnrichmentQueueDepth.Set(float64(len(d.jobs)))
					d.Process(ctx, job)
				}
			}
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (d *Dispatcher) String() string {
	return "enrichment-dispatcher"
}

// Process runs one job to completion on the calling goroutine. It never
// panics and never returns an error; the outcome is for logging and tests.
func (d *Dispatcher) Process(ctx context.Context, job Job) (outcome Outcome) {
	log := logging.Ctx(ctx).With().Int64("screen_id", job.ScreenID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("enrichment job panicked")
			outcome = OutcomePanic
		}
		d.finish(job, outcome)
	}()

	lookupCtx, cancel := context.WithTimeout(ctx, d.cfg.LookupTimeout)
	defer cancel()

	pt, err := d.provider.LookupByCoordinates(lookupCtx, job.Coordinates.Lat, job.Coordinates.Lng, d.cfg.Language)
	if err != nil {
		log.Warn().Err(err).Msg("popular times lookup failed")
		return OutcomeLookupFailed
	}
	if pt == nil || !domain.HasPopularTimes(pt.Payload) {
		log.Debug().Msg("no popular times for coordinates")
		return OutcomeNoPayload
	}

	if err := d.writer.UpdatePopularTimes(ctx, job.ScreenID, pt.Payload); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info().Msg("screen removed before popular times were written")
		} else {
			log.Error().Err(err).Msg("popular times write-back failed")
		}
		return OutcomeWriteFailed
	}

	log.Info().Int("bytes", len(pt.Payload)).Msg("popular times updated")
	return OutcomeWritten
}

func (d *Dispatcher) finish(job Job, outcome Outcome) {
	metrics.EnrichmentJobs.WithLabelValues(string(outcome)).Inc()
	if d.OnOutcome != nil {
		d.OnOutcome(job, outcome)
	}
}
