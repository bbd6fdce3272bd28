package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Decision is the terminal outcome of a reviewed application.
type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionDenied   Decision = "Denied"
)

// Status is the review-workflow state derived from persisted fields, so the
// staff surface can be rebuilt after a restart without any in-memory flow
// state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusClaimed    Status = "claimed"
	StatusScored     Status = "scored"
	StatusDecided    Status = "decided"
)

// Application mirrors the applications table. It is the single source of
// truth for an applicant's lifecycle, from conversation start to final
// decision.
type Application struct {
	ID                 string
	ApplicantID        string
	ApplicantName      string
	StartedAt          *time.Time
	FinishedAt         *time.Time
	Transcript         string
	OutboundMessageIDs []string
	Score              *int
	ScoreScale         *int
	Decision           *Decision
	DecisionReason     *string
	PickerID           *string
	ReviewerID         *string
	ReviewMessageID    *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Status derives the workflow state from the durable fields alone.
func (a Application) Status() Status {
	switch {
	case a.Decision != nil:
		return StatusDecided
	case a.Score != nil:
		return StatusScored
	case a.PickerID != nil:
		return StatusClaimed
	case a.FinishedAt != nil:
		return StatusSubmitted
	default:
		return StatusInProgress
	}
}

// ClaimedByOther reports whether the application has been claimed by someone other
// than actorID.
func (a Application) ClaimedByOther(actorID string) bool {
	return a.PickerID != nil && *a.PickerID != actorID
}

// ValidScale reports whether scale is one of the supported score
// denominators.
func ValidScale(scale int) bool {
	switch scale {
	case 5, 10, 50, 100:
		return true
	default:
		return false
	}
}

// NewID generates an application identifier of the form
// app_<UTC timestamp>_<6 hex chars>. IDs are unique and never reused.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("app_%s_%s", now.UTC().Format("20060102150405"), suffix)
}
