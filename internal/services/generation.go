package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"travelatlas/internal/ai"
	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/logging"
	"travelatlas/internal/observability"
	"travelatlas/internal/planner"
	"travelatlas/internal/repositories"
	"travelatlas/internal/utils"
)

const (
	// StaleGenerationAfter is how long a generating row this process does not
	// own may sit before the periodic sweep fails it.
	StaleGenerationAfter = 15 * time.Minute
	// DefaultSweepEvery is how often a running dispatcher looks for stale rows.
	DefaultSweepEvery = time.Minute
	// completeHeadroom is added to the model timeout so a late reply can still be stored.
	completeHeadroom = 15 * time.Second
	defaultTripDays  = 3

	msgQueueFull   = "generation queue full"
	msgInterrupted = "generation interrupted, please try again"
	msgBadOutput   = "the AI returned an itinerary we could not read, please try again"
	msgUnavailable = "the AI service is unavailable, please try again later"
)

// GenerateInput is the body of POST /api/ai/generate-itinerary: either an
// existing itinerary id or the wizard fields for a new one.
type GenerateInput struct {
	ItineraryID string `json:"itinerary_id"`
	models.ItineraryInput
}

type generationJob struct {
	itinerary models.Itinerary
	days      int
	requestID string
}

// Dispatcher runs itinerary generations on a bounded pool of workers.
// Requests enqueue and return; clients poll the itinerary status.
type Dispatcher struct {
	AI          ai.Client
	Itineraries repositories.ItineraryRepository
	// Timeout bounds one model call. The job deadline adds completeHeadroom.
	Timeout time.Duration
	// SweepEvery is the stale-row sweep interval; 0 disables the sweep.
	SweepEvery time.Duration

	workers int
	jobs    chan generationJob

	mu      sync.Mutex
	started bool
	stopped bool
	owned   map[string]struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher sizes the queue at four jobs per worker.
func NewDispatcher(client ai.Client, workers int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		AI:         client,
		Timeout:    timeout,
		SweepEvery: DefaultSweepEvery,
		workers:    workers,
		jobs:       make(chan generationJob, workers*4),
		owned:      map[string]struct{}{},
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start(parent context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	if d.SweepEvery > 0 {
		d.wg.Add(1)
		go d.sweeper(ctx)
	}
	logging.Info().Int("workers", d.workers).Int("queue", cap(d.jobs)).Msg("generation dispatcher started")
}

// Stop cancels running jobs and waits for the workers until ctx expires.
// Jobs still queued are marked failed.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.stopped = true
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.cancel()
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("generation workers did not stop: %w", ctx.Err())
	}

	for {
		select {
		case job := <-d.jobs:
			d.fail(job, msgInterrupted)
			d.release(job.itinerary.ID)
			observability.GenerationRejected()
		default:
			return nil
		}
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.run(ctx, job)
		}
	}
}

// enqueue never blocks. It reports false when the queue is full or the
// dispatcher is stopped.
func (d *Dispatcher) enqueue(job generationJob) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	select {
	case d.jobs <- job:
		d.owned[job.itinerary.ID] = struct{}{}
		return true
	default:
		return false
	}
}

func (d *Dispatcher) release(id string) {
	d.mu.Lock()
	delete(d.owned, id)
	d.mu.Unlock()
}

// ownedIDs lists the itineraries queued or running in this process, sorted.
func (d *Dispatcher) ownedIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.owned))
	for id := range d.owned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// jobTimeout is the deadline of one job: the model call plus time to store the result.
func (d *Dispatcher) jobTimeout() time.Duration {
	if d.Timeout <= 0 {
		return 0
	}
	return d.Timeout + completeHeadroom
}

// run generates one itinerary. Every outcome ends in ready or failed.
func (d *Dispatcher) run(parent context.Context, job generationJob) {
	observability.GenerationStarted()
	start := time.Now()
	id := job.itinerary.ID
	defer d.release(id)

	ctx := parent
	if timeout := d.jobTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	acts, err := d.generate(ctx, job)
	if err == nil {
		err = d.Itineraries.CompleteGeneration(ctx, id, acts, now())
	}
	if err != nil {
		utils.LogFailure(job.requestID, "generation", "generate", err)
		d.fail(job, failureMessage(err))
		observability.GenerationFinished(models.StatusFailed)
		return
	}

	utils.LogEvent(job.requestID, "generation", "generate",
		fmt.Sprintf("itinerary_id=%s days=%d activities=%d elapsed_ms=%d", id, job.days, len(acts), time.Since(start).Milliseconds()))
	observability.GenerationFinished(models.StatusReady)
}

func (d *Dispatcher) generate(ctx context.Context, job generationJob) ([]models.Activity, error) {
	if d.AI == nil {
		return nil, domain.UnavailableError{Service: "ai"}
	}
	req, err := ai.GenerationRequest(job.itinerary, job.days)
	if err != nil {
		return nil, err
	}
	out, err := d.AI.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	parsed, err := ai.ParseActivities(out)
	if err != nil {
		return nil, domain.BadUpstreamError{Service: "ai", Err: err}
	}

	ts := now()
	acts := planner.AssignDays(parsed, job.days)
	for i := range acts {
		acts[i].ID = newID()
		acts[i].ItineraryID = job.itinerary.ID
		acts[i].CreatedAt = ts
		acts[i].UpdatedAt = ts
	}
	return acts, nil
}

func failureMessage(err error) string {
	switch {
	case domain.IsBadUpstream(err):
		return msgBadOutput
	case domain.IsUnavailable(err):
		return msgUnavailable
	case errors.Is(err, context.Canceled):
		return msgInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return "generation timed out, please try again"
	default:
		return "generation failed"
	}
}

// fail records the failure with a fresh context so it lands even when the job context is gone.
func (d *Dispatcher) fail(job generationJob, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Itineraries.SetStatus(ctx, job.itinerary.ID, models.StatusFailed, msg, now()); err != nil {
		utils.LogFailure(job.requestID, "generation", "mark_failed", err)
	}
}

// RecoverInterrupted fails every generating row. Call it before Start: a
// fresh process owns no jobs, so any such row lost its worker.
func (d *Dispatcher) RecoverInterrupted(ctx context.Context) (int64, error) {
	return d.failGenerating(ctx, now())
}

// RecoverStale fails generating rows older than StaleGenerationAfter that
// this dispatcher does not own.
func (d *Dispatcher) RecoverStale(ctx context.Context) (int64, error) {
	return d.failGenerating(ctx, now().Add(-StaleGenerationAfter))
}

func (d *Dispatcher) failGenerating(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := d.Itineraries.FailStaleGenerations(ctx, cutoff, now(), msgInterrupted, d.ownedIDs())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Warn().Int64("itineraries", n).Time("cutoff", cutoff).Msg("marked stale generations as failed")
	}
	return n, nil
}

func (d *Dispatcher) sweeper(ctx context.Context) {
	defer d.wg.Done()
	t := time.NewTicker(d.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := d.RecoverStale(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Msg("stale generation sweep failed")
			}
		}
	}
}

// GenerationService starts generations on behalf of a user.
type GenerationService struct {
	Dispatcher  *Dispatcher
	Itineraries ItineraryService
	RequestID   string
}

// Start resolves or creates the itinerary, flips it to generating and
// queues the job. The returned itinerary reflects the queued state: a full
// queue yields a failed itinerary rather than a blocked request.
func (s GenerationService) Start(ctx context.Context, userID string, in GenerateInput) (models.Itinerary, error) {
	if s.Dispatcher == nil {
		return models.Itinerary{}, domain.UnavailableError{Service: "ai"}
	}

	var it models.Itinerary
	var days int
	var err error
	id := strings.TrimSpace(in.ItineraryID)
	if id != "" {
		it, err = s.Itineraries.Get(ctx, userID, id)
		days = DayCount(it)
	} else {
		if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Destination) != "" {
			in.Title = "Trip to " + utils.NormalizeSpace(in.Destination)
		}
		it, days, err = s.Itineraries.build(userID, in.ItineraryInput, models.StatusDraft)
	}
	if err != nil {
		return models.Itinerary{}, err
	}
	if days > planner.MaxTripDays {
		return models.Itinerary{}, domain.ValidationError{Field: "end_date", Msg: fmt.Sprintf("generated trips are limited to %d days", planner.MaxTripDays)}
	}
	// the wizard draft is stored only once the trip length is accepted
	if id == "" {
		if err := s.Itineraries.insert(ctx, it); err != nil {
			return models.Itinerary{}, err
		}
	}
	if days == 0 {
		days = defaultTripDays
	}

	ts := now()
	ok, err := s.Itineraries.Repo.BeginGeneration(ctx, it.ID, ts)
	if err != nil {
		return models.Itinerary{}, repoError("itinerary", err)
	}
	if !ok {
		return models.Itinerary{}, domain.ConflictError{Resource: "itinerary", Msg: "generation already in progress"}
	}
	it.Status = models.StatusGenerating
	it.GenerationError = ""
	it.UpdatedAt = ts

	job := generationJob{itinerary: it, days: days, requestID: s.RequestID}
	if !s.Dispatcher.enqueue(job) {
		observability.GenerationRejected()
		s.Dispatcher.fail(job, msgQueueFull)
		it.Status = models.StatusFailed
		it.GenerationError = msgQueueFull
		utils.LogEvent(s.RequestID, "generation", "enqueue", "queue full itinerary_id="+it.ID)
		return it, nil
	}
	utils.LogEvent(s.RequestID, "generation", "enqueue", fmt.Sprintf("itinerary_id=%s days=%d", it.ID, days))
	return it, nil
}
