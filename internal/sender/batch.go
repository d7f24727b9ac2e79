package sender

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wablaster/wablaster/internal/session"
	"github.com/wablaster/wablaster/pkg/models"
)

// ErrBusy is returned when a batch or control operation is requested
// while another one holds the single-flight guard.
var ErrBusy = errors.New("another batch or control operation is in flight")

// Dispatcher runs one send attempt.
type Dispatcher interface {
	Send(ctx context.Context, phone, message string) Outcome
}

// Cleaner reaps surfaces and recomputes session state.
type Cleaner interface {
	Reap(forceAll bool)
	Refresh() []string
}

// Lifecycle is the browser session lifecycle the coordinator depends on.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
	Ready() bool
	OpenPrimary() error
}

// Profiles resets the persistent profile directory.
type Profiles interface {
	Reset() (string, error)
}

// Result aggregates one batch. The rejected/failed split is surfaced
// separately; FailCount keeps the combined total for callers that only
// read the aggregate.
type Result struct {
	BatchID       string
	SuccessCount  int
	RejectedCount int
	FailedCount   int
	DelayUsed     time.Duration
}

// FailCount is rejected plus failed.
func (r Result) FailCount() int {
	return r.RejectedCount + r.FailedCount
}

// Coordinator sequences batches strictly one send at a time. The shared
// browser session has a single input focus, so concurrent sends are
// unsafe; a weighted semaphore of capacity one also serializes batches
// against Initialize/Close/ResetProfile.
type Coordinator struct {
	guard    *semaphore.Weighted
	store    *session.Store
	life     Lifecycle
	cleaner  Cleaner
	dispatch Dispatcher
	profiles Profiles
	notify   func(models.ProgressEvent)
	sleep    func(ctx context.Context, d time.Duration)
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(store *session.Store, life Lifecycle, cleaner Cleaner, dispatch Dispatcher, profiles Profiles) *Coordinator {
	return &Coordinator{
		guard:    semaphore.NewWeighted(1),
		store:    store,
		life:     life,
		cleaner:  cleaner,
		dispatch: dispatch,
		profiles: profiles,
		sleep:    sleepCtx,
	}
}

// SetNotifier registers a per-send progress callback (the websocket hub
// in production). Must be called before the first batch.
func (c *Coordinator) SetNotifier(fn func(models.ProgressEvent)) {
	c.notify = fn
}

// SendBatch runs recipients through the executor in input order. A
// per-recipient failure never aborts the batch; only a browser
// initialization failure during lazy start is fatal. The delay is read
// once at batch start and held for the whole batch.
func (c *Coordinator) SendBatch(ctx context.Context, recipients []models.Recipient, delayOverride time.Duration) (Result, error) {
	if !c.guard.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	defer c.guard.Release(1)

	if delayOverride > 0 {
		if err := c.store.SetDelay(delayOverride); err != nil {
			log.Printf("⚠️  Ignoring delay override %v: %v", delayOverride, err)
		}
	}
	delay := c.store.Delay()

	// Leftover per-send surfaces from a previous batch would steal
	// focus from new sends.
	c.cleaner.Reap(false)

	if !c.life.Ready() {
		if err := c.life.Start(ctx); err != nil {
			return Result{}, err
		}
	}

	res := Result{BatchID: uuid.New().String(), DelayUsed: delay}
	total := len(recipients)
	log.Printf("📨 Batch %s: %d recipients, delay %v", res.BatchID[:8], total, delay)

	for i, rcpt := range recipients {
		if i > 0 {
			c.sleep(ctx, delay)
		}

		var outcome Outcome
		if strings.TrimSpace(rcpt.Phone) == "" || strings.TrimSpace(rcpt.Message) == "" {
			log.Printf("❌ Batch %s: recipient %d/%d has blank phone or message, counted as failed", res.BatchID[:8], i+1, total)
			outcome = OutcomeFailed
			res.FailedCount++
		} else {
			outcome = c.dispatch.Send(ctx, rcpt.Phone, rcpt.Message)
			switch outcome {
			case OutcomeSent:
				res.SuccessCount++
				c.store.MarkActivity()
			case OutcomeRejected:
				res.RejectedCount++
			default:
				res.FailedCount++
			}
		}

		if c.notify != nil {
			c.notify(models.ProgressEvent{
				BatchID:       res.BatchID,
				Index:         i + 1,
				Total:         total,
				Phone:         rcpt.Phone,
				Outcome:       outcome.String(),
				SuccessCount:  res.SuccessCount,
				RejectedCount: res.RejectedCount,
				FailedCount:   res.FailedCount,
			})
		}
	}

	log.Printf("📨 Batch %s done: %d sent, %d rejected, %d failed", res.BatchID[:8], res.SuccessCount, res.RejectedCount, res.FailedCount)
	return res, nil
}

// Initialize hard-reaps, starts a fresh browser session and opens the
// primary surface at the target site root.
func (c *Coordinator) Initialize(ctx context.Context) error {
	if !c.guard.TryAcquire(1) {
		return ErrBusy
	}
	defer c.guard.Release(1)

	c.cleaner.Reap(true)
	if err := c.life.Start(ctx); err != nil {
		return err
	}
	if err := c.life.OpenPrimary(); err != nil {
		return err
	}
	c.cleaner.Refresh()
	return nil
}

// Close hard-reaps every target-site surface. The browser itself keeps
// running; a later batch or Initialize reuses it.
func (c *Coordinator) Close(ctx context.Context) error {
	if !c.guard.TryAcquire(1) {
		return ErrBusy
	}
	defer c.guard.Release(1)

	c.cleaner.Reap(true)
	return nil
}

// ResetProfile stops the browser and archives-then-clears the profile
// directory, forcing fresh pairing on the next start. Returns the backup
// archive path.
func (c *Coordinator) ResetProfile(ctx context.Context) (string, error) {
	if !c.guard.TryAcquire(1) {
		return "", ErrBusy
	}
	defer c.guard.Release(1)

	c.cleaner.Reap(true)
	c.life.Stop()
	return c.profiles.Reset()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
