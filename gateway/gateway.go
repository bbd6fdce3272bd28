// Package gateway declares the boundary to the chat platform. The lifecycle
// engines talk only to these interfaces; the discord package provides the
// production implementation.
package gateway

import (
	"context"
	"errors"

	"applyflow/application"
)

// ErrDeliveryFailure signals that the recipient is unreachable, typically
// because private messages are disabled.
var ErrDeliveryFailure = errors.New("gateway: delivery failure")

// ResultNotice carries the fields of the final decision message sent to the
// applicant.
type ResultNotice struct {
	ApplicationID string
	Decision      application.Decision
	Score         *int
	ScoreScale    *int
	ReviewerID    string
	Reason        string
}

// ApplicantMessenger sends and manages the private messages the system is
// responsible for. Every send returns the platform message id so the caller
// can track it for later cleanup.
type ApplicantMessenger interface {
	SendWelcome(ctx context.Context, applicantID, applicationID string) (string, error)
	SendQuestion(ctx context.Context, applicantID, applicationID string, number, total int, text string) (string, error)
	SendSubmitted(ctx context.Context, applicantID, applicationID string) (string, error)
	SendResult(ctx context.Context, applicantID string, notice ResultNotice) (string, error)
	DeleteMessage(ctx context.Context, applicantID, messageID string) error
	// RecentMessageIDs lists ids of system-sent messages among the most
	// recent limit messages in the applicant's private channel.
	RecentMessageIDs(ctx context.Context, applicantID string, limit int) ([]string, error)
}

// ReviewBoard posts and rebuilds the staff-facing record for a submitted
// application. RefreshSubmission replaces the posted record wholesale so its
// visual state always matches the durable record.
type ReviewBoard interface {
	PostSubmission(ctx context.Context, app application.Application) (string, error)
	RefreshSubmission(ctx context.Context, messageID string, app application.Application) error
}

// ReviewerGate answers whether an actor holds the reviewer capability. When
// no staff group is configured the gate reports true for everyone and only
// picker exclusivity remains.
type ReviewerGate interface {
	IsReviewer(ctx context.Context, actorID string) (bool, error)
}
