package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
)

// RunnerConfig carries the tunables for the worker loop
type RunnerConfig struct {
	// Workers is the number of concurrent consumers. Each worker handles
	// one message at a time; long transcription jobs must not starve the
	// queue behind a single goroutine.
	Workers int
	// SoftTimeout is handed to the stage as its context deadline
	SoftTimeout time.Duration
	// HardTimeout is the wall-clock bound after which the runner stops
	// waiting for a stage and treats the attempt as failed
	HardTimeout time.Duration
	// DequeueWait bounds each blocking poll so shutdown stays responsive
	DequeueWait time.Duration
}

// DefaultRunnerConfig mirrors the production worker settings
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:     4,
		SoftTimeout: 55 * time.Minute,
		HardTimeout: 60 * time.Minute,
		DequeueWait: 5 * time.Second,
	}
}

// Runner consumes task messages and drives stages through the guard, retry
// and chaining rules. It is the only component that decides what a stage
// outcome means for the queue and the meeting.
type Runner struct {
	broker      Broker
	guard       *IdempotencyGuard
	policy      RetryPolicy
	stages      map[StageName]Stage
	meetingRepo repositories.MeetingRepository
	deadLetters DeadLetterSink
	logger      *zap.Logger
	cfg         RunnerConfig

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner assembles a runner over the given stages
func NewRunner(
	broker Broker,
	guard *IdempotencyGuard,
	policy RetryPolicy,
	meetingRepo repositories.MeetingRepository,
	deadLetters DeadLetterSink,
	logger *zap.Logger,
	cfg RunnerConfig,
	stages ...Stage,
) *Runner {
	stageMap := make(map[StageName]Stage, len(stages))
	for _, stage := range stages {
		stageMap[stage.Name()] = stage
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = 5 * time.Second
	}
	return &Runner{
		broker:      broker,
		guard:       guard,
		policy:      policy,
		stages:      stageMap,
		meetingRepo: meetingRepo,
		deadLetters: deadLetters,
		logger:      logger,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
	}
}

// Trigger enqueues a task message, typically the first stage of the chain
func (r *Runner) Trigger(ctx context.Context, msg TaskMessage) error {
	return r.broker.Enqueue(ctx, msg)
}

// Start launches the worker goroutines. It returns immediately.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.workerLoop(ctx, i)
	}
	if r.logger != nil {
		r.logger.Info("🚀 Pipeline workers started",
			zap.Int("workers", r.cfg.Workers),
		)
	}
}

// Stop signals workers to finish their current message and waits for them
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
	if r.logger != nil {
		r.logger.Info("🛑 Pipeline workers stopped")
	}
}

func (r *Runner) workerLoop(ctx context.Context, id int) {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		delivery, err := r.broker.Dequeue(ctx, r.cfg.DequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if r.logger != nil {
				r.logger.Error("❌ Dequeue failed",
					zap.Int("worker", id),
					zap.Error(err),
				)
			}
			time.Sleep(time.Second)
			continue
		}
		if delivery == nil {
			continue
		}
		r.handle(ctx, delivery)
	}
}

// handle runs one delivered message through the full guard and outcome
// choreography. The message is always acked at the end; failed work is
// represented by a retry message or a dead letter entry, never by leaving
// the original message in flight.
func (r *Runner) handle(ctx context.Context, delivery *Delivery) {
	msg := delivery.Message

	stage, ok := r.stages[msg.Stage]
	if !ok {
		r.deadLetter(ctx, msg, fmt.Errorf("unknown stage %q", msg.Stage))
		r.ack(ctx, delivery)
		return
	}

	completed, err := r.guard.IsCompleted(ctx, msg.Stage, msg.MeetingID)
	if err != nil {
		// Can't tell whether the stage ran; requeue rather than risk a
		// duplicate execution racing a live worker.
		r.requeueAfterGuardError(ctx, delivery, err)
		return
	}
	if completed {
		if r.logger != nil {
			r.logger.Info("⏭️ Stage already completed, advancing chain",
				zap.String("stage", string(msg.Stage)),
				zap.String("meeting_id", msg.MeetingID.String()),
			)
		}
		// Advancing on a duplicate is what makes the chain self-healing: if
		// the previous delivery died between completion and enqueueing the
		// next stage, this one repairs it. The next stage's own guard
		// deduplicates the extra message.
		r.enqueueNext(ctx, msg)
		r.ack(ctx, delivery)
		return
	}

	acquired, err := r.guard.Acquire(ctx, msg.Stage, msg.MeetingID)
	if err != nil {
		r.requeueAfterGuardError(ctx, delivery, err)
		return
	}
	if !acquired {
		if r.logger != nil {
			r.logger.Info("🔒 Stage claimed by another worker, dropping duplicate",
				zap.String("stage", string(msg.Stage)),
				zap.String("meeting_id", msg.MeetingID.String()),
			)
		}
		r.ack(ctx, delivery)
		return
	}

	outcome := r.execute(ctx, stage, msg)

	switch outcome.Kind {
	case OutcomeSuccess:
		if err := r.guard.MarkCompleted(ctx, msg.Stage, msg.MeetingID); err != nil && r.logger != nil {
			// The work is done; worst case a duplicate re-runs the stage,
			// which every stage tolerates.
			r.logger.Warn("⚠️ Failed to mark stage completed",
				zap.String("stage", string(msg.Stage)),
				zap.Error(err),
			)
		}
		r.enqueueNext(ctx, msg)

	case OutcomeTransient:
		r.release(ctx, msg)
		if r.policy.Exhausted(msg.Attempt) {
			if r.logger != nil {
				r.logger.Error("💀 Retries exhausted",
					zap.String("stage", string(msg.Stage)),
					zap.String("meeting_id", msg.MeetingID.String()),
					zap.Int("attempts", msg.Attempt+1),
					zap.Error(outcome.Err),
				)
			}
			r.deadLetter(ctx, msg, outcome.Err)
		} else {
			delay := r.policy.Delay(msg.Attempt)
			if r.logger != nil {
				r.logger.Warn("🔁 Stage failed, scheduling retry",
					zap.String("stage", string(msg.Stage)),
					zap.String("meeting_id", msg.MeetingID.String()),
					zap.Int("attempt", msg.Attempt),
					zap.Duration("delay", delay),
					zap.Error(outcome.Err),
				)
			}
			if err := r.broker.EnqueueIn(ctx, msg.Retry(), delay); err != nil {
				// Retry message lost; the dead letter list is the audit
				// trail of last resort.
				r.deadLetter(ctx, msg, fmt.Errorf("failed to schedule retry: %w (original: %v)", err, outcome.Err))
			}
		}

	case OutcomePermanent:
		if r.logger != nil {
			r.logger.Error("🚫 Permanent stage failure",
				zap.String("stage", string(msg.Stage)),
				zap.String("meeting_id", msg.MeetingID.String()),
				zap.Error(outcome.Err),
			)
		}
		r.release(ctx, msg)
		r.deadLetter(ctx, msg, outcome.Err)
	}

	r.ack(ctx, delivery)
}

// execute runs the stage under both timeout layers. The soft timeout is the
// stage's context deadline; the hard timeout bounds how long the worker
// itself will wait before abandoning the attempt.
func (r *Runner) execute(ctx context.Context, stage Stage, msg TaskMessage) Outcome {
	runCtx := ctx
	cancel := func() {}
	if r.cfg.SoftTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.SoftTimeout)
	}
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		done <- stage.Execute(runCtx, msg.MeetingID)
	}()

	if r.cfg.HardTimeout <= 0 {
		return <-done
	}

	timer := time.NewTimer(r.cfg.HardTimeout)
	defer timer.Stop()

	select {
	case outcome := <-done:
		return outcome
	case <-timer.C:
		cancel()
		return Transient(fmt.Errorf("stage %s exceeded hard timeout of %s", stage.Name(), r.cfg.HardTimeout))
	}
}

func (r *Runner) enqueueNext(ctx context.Context, msg TaskMessage) {
	next := msg.Stage.Next()
	if next == "" {
		if r.logger != nil {
			r.logger.Info("🏁 Pipeline complete",
				zap.String("meeting_id", msg.MeetingID.String()),
			)
		}
		return
	}
	if err := r.broker.Enqueue(ctx, NewTaskMessage(next, msg.MeetingID)); err != nil && r.logger != nil {
		// The stage's completion marker survives, so a re-driven message
		// for this stage will advance the chain.
		r.logger.Error("❌ Failed to enqueue next stage",
			zap.String("stage", string(next)),
			zap.String("meeting_id", msg.MeetingID.String()),
			zap.Error(err),
		)
	}
}

// deadLetter records the abandoned task and freezes the meeting in error
func (r *Runner) deadLetter(ctx context.Context, msg TaskMessage, cause error) {
	errText := "unknown error"
	if cause != nil {
		errText = cause.Error()
	}
	entry := DeadLetterEntry{
		TaskID:    msg.TaskID,
		Stage:     msg.Stage,
		MeetingID: msg.MeetingID,
		Attempts:  msg.Attempt + 1,
		Error:     errText,
		FailedAt:  time.Now(),
	}
	if err := r.deadLetters.Record(ctx, entry); err != nil && r.logger != nil {
		r.logger.Error("❌ Failed to record dead letter",
			zap.String("task_id", msg.TaskID.String()),
			zap.Error(err),
		)
	}

	if r.meetingRepo != nil {
		if _, err := r.meetingRepo.UpdateStatus(ctx, msg.MeetingID, entities.MeetingStatusError); err != nil && r.logger != nil {
			r.logger.Error("❌ Failed to mark meeting as errored",
				zap.String("meeting_id", msg.MeetingID.String()),
				zap.Error(err),
			)
		}
	}
}

// requeueAfterGuardError handles an unreadable idempotency store. The
// requeue carries the advanced attempt counter so a store that stays down
// consumes the same bounded budget as any other transient failure.
func (r *Runner) requeueAfterGuardError(ctx context.Context, delivery *Delivery, cause error) {
	msg := delivery.Message

	if r.policy.Exhausted(msg.Attempt) {
		if r.logger != nil {
			r.logger.Error("💀 Idempotency store unavailable, retries exhausted",
				zap.String("stage", string(msg.Stage)),
				zap.String("meeting_id", msg.MeetingID.String()),
				zap.Int("attempts", msg.Attempt+1),
				zap.Error(cause),
			)
		}
		r.deadLetter(ctx, msg, fmt.Errorf("idempotency store unavailable: %w", cause))
		r.ack(ctx, delivery)
		return
	}

	if r.logger != nil {
		r.logger.Error("❌ Idempotency store unavailable, requeueing",
			zap.String("stage", string(msg.Stage)),
			zap.Int("attempt", msg.Attempt),
			zap.Error(cause),
		)
	}
	if err := r.broker.EnqueueIn(ctx, msg.Retry(), r.policy.BaseDelay); err != nil {
		r.deadLetter(ctx, msg, fmt.Errorf("failed to requeue after guard error: %w (original: %v)", err, cause))
	}
	r.ack(ctx, delivery)
}

func (r *Runner) release(ctx context.Context, msg TaskMessage) {
	if err := r.guard.Release(ctx, msg.Stage, msg.MeetingID); err != nil && r.logger != nil {
		// The processing TTL will expire the claim on its own; the retry
		// delay should outlast it in the common case.
		r.logger.Warn("⚠️ Failed to release idempotency guard",
			zap.String("stage", string(msg.Stage)),
			zap.Error(err),
		)
	}
}

func (r *Runner) ack(ctx context.Context, delivery *Delivery) {
	if err := r.broker.Ack(ctx, delivery); err != nil && r.logger != nil {
		r.logger.Warn("⚠️ Failed to ack delivery",
			zap.String("task_id", delivery.Message.TaskID.String()),
			zap.Error(err),
		)
	}
}
