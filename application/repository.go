package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals an unknown application id.
	ErrNotFound = errors.New("application: not found")
)

// UpsertParams carries a partial record for Upsert. Nil fields keep their
// stored values; Transcript and OutboundMessageIDs are replaced wholesale
// whenever provided, never merged.
type UpsertParams struct {
	ID                 string
	ApplicantID        string
	ApplicantName      string
	StartedAt          *time.Time
	FinishedAt         *time.Time
	Transcript         *string
	OutboundMessageIDs *[]string
	Score              *int
	ScoreScale         *int
	Decision           *Decision
	DecisionReason     *string
	PickerID           *string
	ReviewerID         *string
	ReviewMessageID    *string
}

// ReviewUpdate carries the fields mutable by the review workflow. Applied on
// a row already locked with GetForUpdate so concurrent reviewers serialize.
type ReviewUpdate struct {
	Score              *int
	ScoreScale         *int
	Decision           *Decision
	DecisionReason     *string
	PickerID           *string
	ReviewerID         *string
	OutboundMessageIDs *[]string
}

// Repository is the durable store contract. Records are permanent once
// created; there is no delete.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (Application, error)
	Get(ctx context.Context, id string) (Application, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Application, error)
	UpdateReview(ctx context.Context, tx pgx.Tx, id string, upd ReviewUpdate) (Application, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const applicationColumns = `application_id, applicant_id, applicant_name, started_at, finished_at,
        transcript, outbound_message_ids, score, score_scale, decision, decision_reason,
        picker_id, reviewer_id, review_message_id, created_at, updated_at`

// Upsert inserts a new record when the id is unseen, otherwise updates only
// the fields provided, leaving all others unchanged.
func (r *PGRepository) Upsert(ctx context.Context, params UpsertParams) (Application, error) {
	if params.ID == "" {
		return Application{}, fmt.Errorf("application: missing id")
	}

	query := fmt.Sprintf(`
        INSERT INTO applications (application_id, applicant_id, applicant_name, started_at, finished_at,
            transcript, outbound_message_ids, score, score_scale, decision, decision_reason,
            picker_id, reviewer_id, review_message_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        ON CONFLICT (application_id) DO UPDATE SET
            started_at           = COALESCE(EXCLUDED.started_at, applications.started_at),
            finished_at          = COALESCE(EXCLUDED.finished_at, applications.finished_at),
            transcript           = COALESCE(EXCLUDED.transcript, applications.transcript),
            outbound_message_ids = COALESCE(EXCLUDED.outbound_message_ids, applications.outbound_message_ids),
            score                = COALESCE(EXCLUDED.score, applications.score),
            score_scale          = COALESCE(EXCLUDED.score_scale, applications.score_scale),
            decision             = COALESCE(EXCLUDED.decision, applications.decision),
            decision_reason      = COALESCE(EXCLUDED.decision_reason, applications.decision_reason),
            picker_id            = COALESCE(EXCLUDED.picker_id, applications.picker_id),
            reviewer_id          = COALESCE(EXCLUDED.reviewer_id, applications.reviewer_id),
            review_message_id    = COALESCE(EXCLUDED.review_message_id, applications.review_message_id),
            updated_at           = now()
        RETURNING %s`, applicationColumns)

	row := r.pool.QueryRow(ctx, query,
		params.ID,
		params.ApplicantID,
		params.ApplicantName,
		params.StartedAt,
		params.FinishedAt,
		params.Transcript,
		messageIDsArg(params.OutboundMessageIDs),
		params.Score,
		params.ScoreScale,
		decisionArg(params.Decision),
		params.DecisionReason,
		params.PickerID,
		params.ReviewerID,
		params.ReviewMessageID,
	)

	app, err := scanApplication(row)
	if err != nil {
		return Application{}, fmt.Errorf("application: upsert: %w", err)
	}
	return app, nil
}

// Get returns the full record for id.
func (r *PGRepository) Get(ctx context.Context, id string) (Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE application_id = $1`, applicationColumns)

	app, err := scanApplication(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, fmt.Errorf("application: get: %w", err)
	}
	return app, nil
}

// GetForUpdate locks the row for the duration of the transaction so
// read-modify-write sequences on a single application cannot race.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE application_id = $1 FOR UPDATE`, applicationColumns)

	app, err := scanApplication(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, fmt.Errorf("application: get for update: %w", err)
	}
	return app, nil
}

// UpdateReview applies review-side fields to a locked row. Nil fields stay
// untouched; provided fields overwrite (last-write-wins).
func (r *PGRepository) UpdateReview(ctx context.Context, tx pgx.Tx, id string, upd ReviewUpdate) (Application, error) {
	query := fmt.Sprintf(`
        UPDATE applications SET
            score                = COALESCE($2, score),
            score_scale          = COALESCE($3, score_scale),
            decision             = COALESCE($4, decision),
            decision_reason      = COALESCE($5, decision_reason),
            picker_id            = COALESCE($6, picker_id),
            reviewer_id          = COALESCE($7, reviewer_id),
            outbound_message_ids = COALESCE($8::text[], outbound_message_ids),
            updated_at           = now()
        WHERE application_id = $1
        RETURNING %s`, applicationColumns)

	row := tx.QueryRow(ctx, query, id,
		upd.Score,
		upd.ScoreScale,
		decisionArg(upd.Decision),
		upd.DecisionReason,
		upd.PickerID,
		upd.ReviewerID,
		messageIDsArg(upd.OutboundMessageIDs),
	)

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, fmt.Errorf("application: update review: %w", err)
	}
	return app, nil
}

func scanApplication(row pgx.Row) (Application, error) {
	var (
		app        Application
		ids        []string
		transcript *string
		decision   *string
	)
	err := row.Scan(
		&app.ID,
		&app.ApplicantID,
		&app.ApplicantName,
		&app.StartedAt,
		&app.FinishedAt,
		&transcript,
		&ids,
		&app.Score,
		&app.ScoreScale,
		&decision,
		&app.DecisionReason,
		&app.PickerID,
		&app.ReviewerID,
		&app.ReviewMessageID,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}

	app.OutboundMessageIDs = ids
	if transcript != nil {
		app.Transcript = *transcript
	}
	if decision != nil {
		d := Decision(*decision)
		app.Decision = &d
	}
	return app, nil
}

func messageIDsArg(ids *[]string) any {
	if ids == nil {
		return nil
	}
	return *ids
}

func decisionArg(d *Decision) any {
	if d == nil {
		return nil
	}
	return string(*d)
}
