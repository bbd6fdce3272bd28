package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"applyflow/application"
	"applyflow/cleanup"
	"applyflow/gateway"
	"applyflow/metrics"
)

var (
	// ErrCooldownActive signals a start attempt inside the cooldown window
	// since the applicant's previous start.
	ErrCooldownActive = errors.New("conversation: cooldown active")
	// ErrNoQuestions signals a misconfigured empty question list.
	ErrNoQuestions = errors.New("conversation: no questions configured")
)

// Store is the slice of the application store the flow engine writes to.
type Store interface {
	Upsert(ctx context.Context, params application.UpsertParams) (application.Application, error)
}

// Engine drives the per-applicant question sequence. Events for one
// applicant are assumed to arrive one at a time; across applicants the
// engine is safe for concurrent use.
type Engine struct {
	states      StateStore
	store       Store
	messenger   gateway.ApplicantMessenger
	board       gateway.ReviewBoard
	sweeper     *cleanup.Sweeper
	questions   []string
	cooldown    time.Duration
	idGenerator func(now time.Time) string
	now         func() time.Time
	log         *zap.Logger
}

func NewEngine(states StateStore, store Store, messenger gateway.ApplicantMessenger, board gateway.ReviewBoard, sweeper *cleanup.Sweeper, questions []string, cooldown time.Duration, log *zap.Logger) *Engine {
	return &Engine{
		states:      states,
		store:       store,
		messenger:   messenger,
		board:       board,
		sweeper:     sweeper,
		questions:   questions,
		cooldown:    cooldown,
		idGenerator: application.NewID,
		now:         time.Now,
		log:         log,
	}
}

func (e *Engine) WithIDGenerator(gen func(now time.Time) string) *Engine {
	e.idGenerator = gen
	return e
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Cooldown returns the configured start throttle.
func (e *Engine) Cooldown() time.Duration {
	return e.cooldown
}

// Start begins a new application conversation: generates a fresh id, records
// the start, and emits the welcome plus the first question. A start within
// the cooldown window of the applicant's previous start fails with
// ErrCooldownActive and leaves the prior state untouched.
func (e *Engine) Start(ctx context.Context, applicantID, applicantName string) (State, error) {
	if len(e.questions) == 0 {
		return State{}, ErrNoQuestions
	}

	now := e.now()
	prior, err := e.states.Get(ctx, applicantID)
	switch {
	case err == nil:
		if now.Sub(prior.LastStart) < e.cooldown {
			metrics.ConversationsRejected.Inc()
			return State{}, ErrCooldownActive
		}
	case errors.Is(err, ErrStateNotFound):
		// first start for this applicant
	default:
		return State{}, fmt.Errorf("conversation: read state: %w", err)
	}

	state := State{
		ApplicationID: e.idGenerator(now),
		ApplicantID:   applicantID,
		ApplicantName: applicantName,
		StartedAt:     now,
		LastStart:     now,
	}

	// The state (and with it the cooldown mark) is recorded before any
	// delivery attempt, so a failed DM still throttles the next start.
	if err := e.states.Put(ctx, applicantID, state); err != nil {
		return State{}, fmt.Errorf("conversation: save state: %w", err)
	}

	welcomeID, err := e.messenger.SendWelcome(ctx, applicantID, state.ApplicationID)
	if err != nil {
		return State{}, fmt.Errorf("conversation: send welcome: %w", err)
	}
	state.OutboundMessageIDs = append(state.OutboundMessageIDs, welcomeID)

	questionID, err := e.messenger.SendQuestion(ctx, applicantID, state.ApplicationID, 1, len(e.questions), e.questions[0])
	if err != nil {
		return State{}, fmt.Errorf("conversation: send first question: %w", err)
	}
	state.OutboundMessageIDs = append(state.OutboundMessageIDs, questionID)

	if err := e.states.Put(ctx, applicantID, state); err != nil {
		return State{}, fmt.Errorf("conversation: save state: %w", err)
	}

	metrics.ConversationsStarted.Inc()
	e.log.Info("conversation started",
		zap.String("application_id", state.ApplicationID),
		zap.String("applicant_id", applicantID))
	return state, nil
}

// HandleReply processes a free-text reply from the applicant. Replies from
// applicants with no active conversation are ignored: they may be ordinary
// chat. Every reply, regardless of content, is recorded and persisted before
// the next question goes out.
func (e *Engine) HandleReply(ctx context.Context, applicantID, content string) error {
	state, err := e.states.Get(ctx, applicantID)
	if errors.Is(err, ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("conversation: read state: %w", err)
	}
	if state.QuestionIndex >= len(e.questions) {
		// question list shrank under a live flow; treat as complete
		return e.complete(ctx, state)
	}

	question := e.questions[state.QuestionIndex]
	state.AppendAnswer(question, strings.TrimSpace(content))

	transcript := state.Transcript()
	if _, err := e.store.Upsert(ctx, application.UpsertParams{
		ID:                 state.ApplicationID,
		ApplicantID:        state.ApplicantID,
		ApplicantName:      state.ApplicantName,
		StartedAt:          &state.StartedAt,
		Transcript:         &transcript,
		OutboundMessageIDs: &state.OutboundMessageIDs,
	}); err != nil {
		return fmt.Errorf("conversation: save answer: %w", err)
	}

	if err := e.states.Put(ctx, applicantID, state); err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}

	if state.QuestionIndex < len(e.questions) {
		return e.askNext(ctx, state)
	}
	return e.complete(ctx, state)
}

func (e *Engine) askNext(ctx context.Context, state State) error {
	next := e.questions[state.QuestionIndex]
	messageID, err := e.messenger.SendQuestion(ctx, state.ApplicantID, state.ApplicationID, state.QuestionIndex+1, len(e.questions), next)
	if err != nil {
		return fmt.Errorf("conversation: send question %d: %w", state.QuestionIndex+1, err)
	}

	state.OutboundMessageIDs = append(state.OutboundMessageIDs, messageID)
	if err := e.states.Put(ctx, state.ApplicantID, state); err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}
	return nil
}

// complete finishes the conversation: stamps the finish timestamp, sends the
// single submitted summary, sweeps every other outbound message, persists the
// singleton message-id set, publishes the application to the review board and
// discards the ephemeral state. Discarding the state is the last step of this
// transition, so a reply between completion and cleanup cannot occur.
func (e *Engine) complete(ctx context.Context, state State) error {
	finished := e.now()
	transcript := state.Transcript()

	app, err := e.store.Upsert(ctx, application.UpsertParams{
		ID:                 state.ApplicationID,
		ApplicantID:        state.ApplicantID,
		ApplicantName:      state.ApplicantName,
		StartedAt:          &state.StartedAt,
		FinishedAt:         &finished,
		Transcript:         &transcript,
		OutboundMessageIDs: &state.OutboundMessageIDs,
	})
	if err != nil {
		return fmt.Errorf("conversation: save completion: %w", err)
	}

	summaryID, err := e.messenger.SendSubmitted(ctx, state.ApplicantID, state.ApplicationID)
	if err != nil {
		return fmt.Errorf("conversation: send summary: %w", err)
	}

	e.sweeper.Sweep(ctx, state.ApplicantID, state.OutboundMessageIDs, []string{summaryID})

	singleton := []string{summaryID}
	saved, err := e.store.Upsert(ctx, application.UpsertParams{
		ID:                 state.ApplicationID,
		ApplicantID:        state.ApplicantID,
		ApplicantName:      state.ApplicantName,
		OutboundMessageIDs: &singleton,
	})
	if err != nil {
		// summary already delivered; the record still carries the stale id
		// list, which the terminal sweep will retry against
		e.log.Error("persist summary id failed",
			zap.String("application_id", state.ApplicationID), zap.Error(err))
	} else {
		app = saved
	}

	gateway.BestEffort(e.log, "post review submission", func() error {
		messageID, err := e.board.PostSubmission(ctx, app)
		if err != nil {
			return err
		}
		_, err = e.store.Upsert(ctx, application.UpsertParams{
			ID:              state.ApplicationID,
			ApplicantID:     state.ApplicantID,
			ApplicantName:   state.ApplicantName,
			ReviewMessageID: &messageID,
		})
		return err
	})

	metrics.ApplicationsSubmitted.Inc()
	e.log.Info("application submitted",
		zap.String("application_id", state.ApplicationID),
		zap.String("applicant_id", state.ApplicantID))

	return e.states.Delete(ctx, state.ApplicantID)
}
