package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tree-tracker/models"
	"tree-tracker/storage"
	"tree-tracker/utils"
)

var (
	// ErrSubmissionFailed wraps every failed background write.
	ErrSubmissionFailed = errors.New("tree submission failed")
	// ErrDuplicateSubmission is returned when an ID was already submitted
	// in this session and its write has not failed.
	ErrDuplicateSubmission = errors.New("tree already submitted")
)

const writeTimeout = 30 * time.Second

// Recorder hands tree entries to the store without making the caller wait.
// Each entry is written at most once; failures are logged, never retried.
type Recorder struct {
	store  storage.TreeWriter
	sinks  []storage.TreeWriter
	pool   *utils.WorkerPool
	seen   *utils.KeySet
	logger *utils.Logger

	mu       sync.Mutex
	written  int
	failures []error
}

// NewRecorder creates a Recorder writing to store with up to concurrency
// writes in flight, started at least rateLimitMs apart (0 for no limit).
// Sinks receive each entry after the store accepted it.
func NewRecorder(store storage.TreeWriter, concurrency, rateLimitMs int, logger *utils.Logger, sinks ...storage.TreeWriter) *Recorder {
	return &Recorder{
		store:  store,
		sinks:  sinks,
		pool:   utils.NewWorkerPool(concurrency, rateLimitMs),
		seen:   utils.NewKeySet(),
		logger: logger,
	}
}

// Submit assigns an ID when the entry has none, queues the write and
// returns the ID. The entry is copied; later changes by the caller are
// not seen by the write.
func (r *Recorder) Submit(entry *models.TreeEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("recorder: nil entry")
	}

	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = nil

	if !r.seen.Add(e.ID) {
		return e.ID, fmt.Errorf("recorder: %s: %w", e.ID, ErrDuplicateSubmission)
	}

	r.logger.Debug("[recorder] Queued tree %s (%s)", e.ID, e.SpeciesCode)
	r.pool.Submit(func() { r.write(&e) })
	return e.ID, nil
}

func (r *Recorder) write(e *models.TreeEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.store.Add(ctx, e); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrSubmissionFailed, e.ID, err)
		r.logger.Error("[recorder] %v", err)
		r.seen.Remove(e.ID)

		r.mu.Lock()
		r.failures = append(r.failures, err)
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.written++
	r.mu.Unlock()
	r.logger.Info("[recorder] Stored tree %s", e.ID)

	for _, sink := range r.sinks {
		if err := sink.Add(ctx, e); err != nil {
			r.logger.Warn("[recorder] Secondary write of %s failed: %v", e.ID, err)
		}
	}
}

// Wait blocks until every queued write has finished.
func (r *Recorder) Wait() {
	r.pool.Wait()
}

// Submitted returns the number of IDs accepted and not failed so far.
func (r *Recorder) Submitted() int {
	return r.seen.Size()
}

// Written returns the number of entries the store accepted.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Failures returns the errors of failed writes so far.
func (r *Recorder) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.failures))
	copy(out, r.failures)
	return out
}
