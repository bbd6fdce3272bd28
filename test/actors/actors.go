// Package actors provides the concurrent workload for the stress harness:
// applicants submitting applications while staff race to claim, score and
// decide them through the real review service.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"applyflow/application"
	"applyflow/gateway"
	"applyflow/review"
)

// Registry tracks submitted application ids and claim outcomes so the test
// can assert claim exclusivity after the run.
type Registry struct {
	mu     sync.Mutex
	ids    []string
	claims map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{claims: make(map[string][]string)}
}

func (r *Registry) Add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *Registry) Random() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ids) == 0 {
		return "", false
	}
	return r.ids[rand.Intn(len(r.ids))], true
}

func (r *Registry) RecordClaim(appID, actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[appID] = append(r.claims[appID], actorID)
}

// DoubleClaims returns application ids that were successfully claimed more
// than once. Must be empty after any run.
func (r *Registry) DoubleClaims() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, actors := range r.claims {
		if len(actors) > 1 {
			out = append(out, id)
		}
	}
	return out
}

// Applicant submits complete applications directly through the store,
// simulating finished conversations feeding the review queue.
func Applicant(ctx context.Context, repo *application.PGRepository, reg *Registry, stop <-chan struct{}) error {
	seq := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		now := time.Now()
		seq++
		id := application.NewID(now)
		applicantID := fmt.Sprintf("applicant-%s-%d", id[len(id)-6:], seq)
		transcript := "Q: Why join?\nA: stress run\n"
		ids := []string{"msg-1", "msg-2"}

		if _, err := repo.Upsert(ctx, application.UpsertParams{
			ID:                 id,
			ApplicantID:        applicantID,
			ApplicantName:      "Stress Applicant",
			StartedAt:          &now,
			FinishedAt:         &now,
			Transcript:         &transcript,
			OutboundMessageIDs: &ids,
		}); err != nil {
			return fmt.Errorf("applicant upsert: %w", err)
		}
		reg.Add(id)
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Claimer races other claimers for random applications. At most one claim
// per application may ever succeed.
func Claimer(ctx context.Context, svc *review.Service, reg *Registry, actorID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		if id, ok := reg.Random(); ok {
			_, err := svc.Claim(ctx, id, actorID)
			switch {
			case err == nil:
				reg.RecordClaim(id, actorID)
			case errors.Is(err, review.ErrAlreadyClaimed), errors.Is(err, review.ErrNotFound):
				// expected under contention
			default:
				return fmt.Errorf("claimer %s: %w", actorID, err)
			}
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Scorer scores random applications, mixing valid and invalid input. Only
// validation and contention errors are acceptable.
func Scorer(ctx context.Context, svc *review.Service, reg *Registry, actorID string, stop <-chan struct{}) error {
	scales := []string{"5", "10", "50", "100", "20", "ten"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		if id, ok := reg.Random(); ok {
			_, err := svc.Score(ctx, review.ScoreParams{
				ApplicationID: id,
				ActorID:       actorID,
				RawScale:      scales[rand.Intn(len(scales))],
				RawScore:      fmt.Sprintf("%d", rand.Intn(101)),
			})
			switch {
			case err == nil:
			case errors.Is(err, review.ErrInvalidScale),
				errors.Is(err, review.ErrInvalidFormat),
				errors.Is(err, review.ErrForbidden),
				errors.Is(err, review.ErrNotFound):
				// expected
			default:
				return fmt.Errorf("scorer %s: %w", actorID, err)
			}
		}
		time.Sleep(time.Duration(15+rand.Intn(30)) * time.Millisecond)
	}
}

// Decider issues terminal decisions. Conflicting decisions and unscored
// applications are expected rejections; anything else is a failure.
func Decider(ctx context.Context, svc *review.Service, reg *Registry, actorID string, stop <-chan struct{}) error {
	decisions := []application.Decision{application.DecisionApproved, application.DecisionDenied}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		if id, ok := reg.Random(); ok {
			_, err := svc.Decide(ctx, review.DecideParams{
				ApplicationID: id,
				ActorID:       actorID,
				Decision:      decisions[rand.Intn(len(decisions))],
				Reason:        "stress decision",
			})
			switch {
			case err == nil:
			case errors.Is(err, review.ErrScoreRequired),
				errors.Is(err, review.ErrAlreadyDecided),
				errors.Is(err, review.ErrForbidden),
				errors.Is(err, review.ErrNotFound):
				// expected
			default:
				return fmt.Errorf("decider %s: %w", actorID, err)
			}
		}
		time.Sleep(time.Duration(25+rand.Intn(50)) * time.Millisecond)
	}
}

// NullMessenger satisfies the platform boundary without a live chat
// connection. Sends succeed with synthetic ids; history scans are empty.
type NullMessenger struct{}

func (NullMessenger) SendWelcome(context.Context, string, string) (string, error) {
	return syntheticID(), nil
}

func (NullMessenger) SendQuestion(context.Context, string, string, int, int, string) (string, error) {
	return syntheticID(), nil
}

func (NullMessenger) SendSubmitted(context.Context, string, string) (string, error) {
	return syntheticID(), nil
}

func (NullMessenger) SendResult(context.Context, string, gateway.ResultNotice) (string, error) {
	return syntheticID(), nil
}

func (NullMessenger) DeleteMessage(context.Context, string, string) error { return nil }

func (NullMessenger) RecentMessageIDs(context.Context, string, int) ([]string, error) {
	return nil, nil
}

// NullBoard accepts review posts without a live channel.
type NullBoard struct{}

func (NullBoard) PostSubmission(context.Context, application.Application) (string, error) {
	return syntheticID(), nil
}

func (NullBoard) RefreshSubmission(context.Context, string, application.Application) error {
	return nil
}

// OpenGate admits every actor, leaving picker exclusivity as the only
// serialization under test.
type OpenGate struct{}

func (OpenGate) IsReviewer(context.Context, string) (bool, error) { return true, nil }

func syntheticID() string {
	return fmt.Sprintf("synthetic-%d", rand.Int63())
}
