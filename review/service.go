package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"applyflow/application"
	"applyflow/cleanup"
	"applyflow/conversation"
	"applyflow/gateway"
	"applyflow/metrics"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is the slice of the application store the review workflow
// needs. GetForUpdate plus UpdateReview inside one transaction serialize
// concurrent reviewers on a single application.
type Repository interface {
	Get(ctx context.Context, id string) (application.Application, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (application.Application, error)
	UpdateReview(ctx context.Context, tx pgx.Tx, id string, upd application.ReviewUpdate) (application.Application, error)
	Upsert(ctx context.Context, params application.UpsertParams) (application.Application, error)
}

// Service drives the staff-side review workflow over the application store.
type Service struct {
	pool      TxBeginner
	repo      Repository
	gate      gateway.ReviewerGate
	states    conversation.StateStore
	messenger gateway.ApplicantMessenger
	board     gateway.ReviewBoard
	sweeper   *cleanup.Sweeper
	log       *zap.Logger
}

func NewService(pool TxBeginner, repo Repository, gate gateway.ReviewerGate, states conversation.StateStore, messenger gateway.ApplicantMessenger, board gateway.ReviewBoard, sweeper *cleanup.Sweeper, log *zap.Logger) *Service {
	return &Service{
		pool:      pool,
		repo:      repo,
		gate:      gate,
		states:    states,
		messenger: messenger,
		board:     board,
		sweeper:   sweeper,
		log:       log,
	}
}

// Claim grants actorID exclusive review rights. A claim is exactly-once:
// once pickerId is set it never changes, and every later claim fails with
// ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, applicationID, actorID string) (application.Application, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return application.Application{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	app, err := s.repo.GetForUpdate(ctx, tx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, ErrNotFound
		}
		return application.Application{}, err
	}

	if app.PickerID != nil {
		return application.Application{}, ErrAlreadyClaimed
	}

	ok, err := s.gate.IsReviewer(ctx, actorID)
	if err != nil {
		return application.Application{}, fmt.Errorf("review: check reviewer: %w", err)
	}
	if !ok {
		return application.Application{}, ErrUnauthorized
	}

	app, err = s.repo.UpdateReview(ctx, tx, applicationID, application.ReviewUpdate{PickerID: &actorID})
	if err != nil {
		return application.Application{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return application.Application{}, fmt.Errorf("review: commit claim: %w", err)
	}

	s.refreshBoard(ctx, app)
	metrics.ApplicationsClaimed.Inc()
	s.log.Info("application claimed",
		zap.String("application_id", applicationID),
		zap.String("picker_id", actorID))
	return app, nil
}

// ScoreParams carries the raw two-field score input. Scale and score arrive
// as text from the structured input and are validated here.
type ScoreParams struct {
	ApplicationID string
	ActorID       string
	RawScale      string
	RawScore      string
}

// Score records or overwrites the score for an application. Rescoring is
// permitted and replaces the prior score and scale together.
func (s *Service) Score(ctx context.Context, params ScoreParams) (application.Application, error) {
	scale, err := strconv.Atoi(strings.TrimSpace(params.RawScale))
	if err != nil {
		return application.Application{}, ErrInvalidFormat
	}
	score, err := strconv.Atoi(strings.TrimSpace(params.RawScore))
	if err != nil {
		return application.Application{}, ErrInvalidFormat
	}
	if !application.ValidScale(scale) {
		return application.Application{}, ErrInvalidScale
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return application.Application{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	app, err := s.repo.GetForUpdate(ctx, tx, params.ApplicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, ErrNotFound
		}
		return application.Application{}, err
	}

	if app.ClaimedByOther(params.ActorID) {
		return application.Application{}, ErrForbidden
	}
	if app.PickerID == nil {
		ok, err := s.gate.IsReviewer(ctx, params.ActorID)
		if err != nil {
			return application.Application{}, fmt.Errorf("review: check reviewer: %w", err)
		}
		if !ok {
			return application.Application{}, ErrUnauthorized
		}
	}

	app, err = s.repo.UpdateReview(ctx, tx, params.ApplicationID, application.ReviewUpdate{
		Score:      &score,
		ScoreScale: &scale,
		ReviewerID: &params.ActorID,
	})
	if err != nil {
		return application.Application{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return application.Application{}, fmt.Errorf("review: commit score: %w", err)
	}

	s.refreshBoard(ctx, app)
	metrics.ApplicationsScored.Inc()
	s.log.Info("application scored",
		zap.String("application_id", params.ApplicationID),
		zap.String("reviewer_id", params.ActorID),
		zap.Int("score", score),
		zap.Int("scale", scale))
	return app, nil
}

// DecideParams carries a terminal decision with its required reason.
type DecideParams struct {
	ApplicationID string
	ActorID       string
	Decision      application.Decision
	Reason        string
}

// Decide records the terminal decision and runs the final notification
// sequence. Decided is terminal: retrying the same decision and reason is a
// no-op success, while a conflicting second decision fails with
// ErrAlreadyDecided.
func (s *Service) Decide(ctx context.Context, params DecideParams) (application.Application, error) {
	reason := strings.TrimSpace(params.Reason)
	if reason == "" {
		return application.Application{}, ErrInvalidFormat
	}
	if params.Decision != application.DecisionApproved && params.Decision != application.DecisionDenied {
		return application.Application{}, ErrInvalidFormat
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return application.Application{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	app, err := s.repo.GetForUpdate(ctx, tx, params.ApplicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, ErrNotFound
		}
		return application.Application{}, err
	}

	if app.ClaimedByOther(params.ActorID) {
		return application.Application{}, ErrForbidden
	}
	if app.Decision != nil {
		if *app.Decision == params.Decision && app.DecisionReason != nil && *app.DecisionReason == reason {
			return app, nil
		}
		return application.Application{}, ErrAlreadyDecided
	}
	if app.Score == nil {
		return application.Application{}, ErrScoreRequired
	}

	app, err = s.repo.UpdateReview(ctx, tx, params.ApplicationID, application.ReviewUpdate{
		Decision:       &params.Decision,
		DecisionReason: &reason,
		ReviewerID:     &params.ActorID,
	})
	if err != nil {
		return application.Application{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return application.Application{}, fmt.Errorf("review: commit decision: %w", err)
	}

	app = s.finalize(ctx, app)
	metrics.ApplicationsDecided.WithLabelValues(string(params.Decision)).Inc()
	s.log.Info("application decided",
		zap.String("application_id", params.ApplicationID),
		zap.String("reviewer_id", params.ActorID),
		zap.String("decision", string(params.Decision)))
	return app, nil
}

// finalize runs the terminal notification sequence after the decision is
// durable: delete every persisted outbound message, send exactly one result
// message, persist only its id, rebuild the staff post into its final form
// and clear any residual conversation state.
func (s *Service) finalize(ctx context.Context, app application.Application) application.Application {
	s.sweeper.Sweep(ctx, app.ApplicantID, app.OutboundMessageIDs, nil)

	notice := gateway.ResultNotice{
		ApplicationID: app.ID,
		Decision:      *app.Decision,
		Score:         app.Score,
		ScoreScale:    app.ScoreScale,
		Reason:        stringOrEmpty(app.DecisionReason),
	}
	if app.ReviewerID != nil {
		notice.ReviewerID = *app.ReviewerID
	}

	ids := []string{}
	messageID, err := s.messenger.SendResult(ctx, app.ApplicantID, notice)
	if err != nil {
		s.log.Warn("result delivery failed",
			zap.String("application_id", app.ID), zap.Error(err))
	} else {
		ids = []string{messageID}
	}

	saved, err := s.repo.Upsert(ctx, application.UpsertParams{
		ID:                 app.ID,
		ApplicantID:        app.ApplicantID,
		ApplicantName:      app.ApplicantName,
		OutboundMessageIDs: &ids,
	})
	if err != nil {
		s.log.Error("persist result id failed",
			zap.String("application_id", app.ID), zap.Error(err))
	} else {
		app = saved
	}

	s.refreshBoard(ctx, app)

	gateway.BestEffort(s.log, "clear conversation state", func() error {
		return s.states.Delete(ctx, app.ApplicantID)
	})

	return app
}

// Lookup returns the full record to the owning applicant or an authorized
// reviewer; everyone else gets ErrUnauthorized. Backs both the private
// summary and the transcript view.
func (s *Service) Lookup(ctx context.Context, applicationID, requesterID string) (application.Application, error) {
	app, err := s.repo.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, ErrNotFound
		}
		return application.Application{}, err
	}

	if app.ApplicantID == requesterID {
		return app, nil
	}
	ok, err := s.gate.IsReviewer(ctx, requesterID)
	if err != nil {
		return application.Application{}, fmt.Errorf("review: check reviewer: %w", err)
	}
	if !ok {
		return application.Application{}, ErrUnauthorized
	}
	return app, nil
}

func (s *Service) refreshBoard(ctx context.Context, app application.Application) {
	if app.ReviewMessageID == nil {
		return
	}
	gateway.BestEffort(s.log, "refresh review post", func() error {
		return s.board.RefreshSubmission(ctx, *app.ReviewMessageID, app)
	})
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
