package review

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"applyflow/application"
	"applyflow/cleanup"
	"applyflow/conversation"
)

// TestApplicationWalkthrough drives a full lifecycle against the shared
// fakes: an applicant answers every question, then staff claim, score and
// approve the application.
func TestApplicationWalkthrough(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	pool := &fakePool{}
	messenger := &fakeMessenger{nextResultID: "result-1"}
	board := &fakeBoard{}
	states := conversation.NewMemoryStore()
	log := zap.NewNop()
	sweeper := cleanup.NewSweeper(messenger, log)

	engine := conversation.NewEngine(states, repo, messenger, board, sweeper,
		[]string{"Why join?", "Timezone?"}, 5*time.Minute, log).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }).
		WithIDGenerator(func(time.Time) string { return "app_walk_1" })

	svc := NewService(pool, repo, &fakeGate{allowed: true}, states, messenger, board, sweeper, log)

	if _, err := engine.Start(ctx, "applicant-1", "Applicant One"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.HandleReply(ctx, "applicant-1", "to help out"); err != nil {
		t.Fatalf("reply 1: %v", err)
	}
	if err := engine.HandleReply(ctx, "applicant-1", "UTC+2"); err != nil {
		t.Fatalf("reply 2: %v", err)
	}

	if repo.app.FinishedAt == nil {
		t.Fatalf("expected submission recorded")
	}
	if repo.app.ReviewMessageID == nil {
		t.Fatalf("expected review post recorded")
	}
	if board.posts != 1 {
		t.Errorf("expected one review post, got %d", board.posts)
	}

	if _, err := svc.Claim(ctx, "app_walk_1", "staff-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := svc.Score(ctx, ScoreParams{
		ApplicationID: "app_walk_1", ActorID: "staff-1",
		RawScale: "10", RawScore: "9",
	}); err != nil {
		t.Fatalf("score: %v", err)
	}
	decided, err := svc.Decide(ctx, DecideParams{
		ApplicationID: "app_walk_1", ActorID: "staff-1",
		Decision: application.DecisionApproved, Reason: "great fit",
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}

	if decided.Status() != application.StatusDecided {
		t.Errorf("expected decided status, got %s", decided.Status())
	}
	if want := "Q: Why join?\nA: to help out\n\nQ: Timezone?\nA: UTC+2\n"; decided.Transcript != want {
		t.Errorf("unexpected transcript: %q", decided.Transcript)
	}
	if messenger.results != 1 {
		t.Errorf("expected one result message, got %d", messenger.results)
	}
	if messenger.lastNotice.Score == nil || *messenger.lastNotice.Score != 9 {
		t.Errorf("expected result notice to carry the score, got %v", messenger.lastNotice.Score)
	}
	if len(decided.OutboundMessageIDs) != 1 || decided.OutboundMessageIDs[0] != "result-1" {
		t.Errorf("expected only the result message tracked, got %v", decided.OutboundMessageIDs)
	}
}
