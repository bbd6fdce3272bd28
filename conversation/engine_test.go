package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"applyflow/application"
	"applyflow/cleanup"
	"applyflow/gateway"
)

var testClock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(questions []string, cooldown time.Duration) (*Engine, *MemoryStore, *flowStore, *flowMessenger, *flowBoard) {
	states := NewMemoryStore()
	store := &flowStore{}
	messenger := &flowMessenger{}
	board := &flowBoard{nextMessageID: "board-1"}
	sweeper := cleanup.NewSweeper(messenger, zap.NewNop())

	engine := NewEngine(states, store, messenger, board, sweeper, questions, cooldown, zap.NewNop()).
		WithClock(func() time.Time { return testClock }).
		WithIDGenerator(func(time.Time) string { return "app_test_1" })
	return engine, states, store, messenger, board
}

func TestStart_SendsWelcomeAndFirstQuestion(t *testing.T) {
	engine, states, _, messenger, _ := newTestEngine([]string{"Q1?", "Q2?"}, 5*time.Minute)

	state, err := engine.Start(context.Background(), "applicant-1", "Applicant One")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if state.ApplicationID != "app_test_1" {
		t.Errorf("expected generated id, got %s", state.ApplicationID)
	}
	if messenger.welcomes != 1 {
		t.Errorf("expected one welcome, got %d", messenger.welcomes)
	}
	if len(messenger.questions) != 1 || messenger.questions[0] != "Q1?" {
		t.Errorf("expected first question, got %v", messenger.questions)
	}
	if len(state.OutboundMessageIDs) != 2 {
		t.Errorf("expected welcome and question ids tracked, got %v", state.OutboundMessageIDs)
	}

	saved, err := states.Get(context.Background(), "applicant-1")
	if err != nil {
		t.Fatalf("expected state persisted, got %v", err)
	}
	if len(saved.OutboundMessageIDs) != 2 {
		t.Errorf("expected persisted state to track both sends, got %v", saved.OutboundMessageIDs)
	}
}

func TestStart_RejectedInsideCooldown(t *testing.T) {
	engine, _, _, _, _ := newTestEngine([]string{"Q1?"}, 5*time.Minute)

	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}
}

func TestStart_AllowedAfterCooldownWithFreshID(t *testing.T) {
	engine, _, _, _, _ := newTestEngine([]string{"Q1?"}, 5*time.Minute)
	ids := []string{"app_test_1", "app_test_2"}
	engine.WithIDGenerator(func(time.Time) string {
		id := ids[0]
		ids = ids[1:]
		return id
	})

	first, err := engine.Start(context.Background(), "applicant-1", "Applicant One")
	if err != nil {
		t.Fatalf("first start failed: %v", err)
	}

	later := testClock.Add(6 * time.Minute)
	engine.WithClock(func() time.Time { return later })

	second, err := engine.Start(context.Background(), "applicant-1", "Applicant One")
	if err != nil {
		t.Fatalf("expected restart after cooldown, got %v", err)
	}
	if second.ApplicationID == first.ApplicationID {
		t.Errorf("expected a fresh application id, got %s twice", second.ApplicationID)
	}
}

func TestStart_FailedDeliveryStillThrottles(t *testing.T) {
	engine, states, _, messenger, _ := newTestEngine([]string{"Q1?"}, 5*time.Minute)
	messenger.welcomeErr = gateway.ErrDeliveryFailure

	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); err == nil {
		t.Fatalf("expected delivery error")
	}
	if _, err := states.Get(context.Background(), "applicant-1"); err != nil {
		t.Fatalf("expected cooldown mark persisted despite failed DM, got %v", err)
	}

	messenger.welcomeErr = nil
	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}
}

func TestHandleReply_IgnoredWithoutActiveConversation(t *testing.T) {
	engine, _, store, _, _ := newTestEngine([]string{"Q1?"}, 0)

	if err := engine.HandleReply(context.Background(), "stranger-1", "hello"); err != nil {
		t.Fatalf("expected ordinary chat to be ignored, got %v", err)
	}
	if len(store.upserts) != 0 {
		t.Errorf("expected no durable writes, got %d", len(store.upserts))
	}
}

func TestHandleReply_PersistsAnswerBeforeNextQuestion(t *testing.T) {
	engine, _, store, messenger, _ := newTestEngine([]string{"Q1?", "Q2?"}, 0)

	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := engine.HandleReply(context.Background(), "applicant-1", "  my answer  "); err != nil {
		t.Fatalf("reply failed: %v", err)
	}

	if len(store.upserts) != 1 {
		t.Fatalf("expected one durable write, got %d", len(store.upserts))
	}
	params := store.upserts[0]
	if params.Transcript == nil || *params.Transcript != "Q: Q1?\nA: my answer\n" {
		t.Errorf("unexpected transcript: %q", deref(params.Transcript))
	}
	if params.FinishedAt != nil {
		t.Errorf("expected no finish stamp mid-flow")
	}
	if len(messenger.questions) != 2 || messenger.questions[1] != "Q2?" {
		t.Errorf("expected second question sent, got %v", messenger.questions)
	}
}

func TestHandleReply_LastAnswerCompletesFlow(t *testing.T) {
	engine, states, store, messenger, board := newTestEngine([]string{"Q1?", "Q2?"}, 0)

	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := engine.HandleReply(context.Background(), "applicant-1", "first"); err != nil {
		t.Fatalf("first reply failed: %v", err)
	}
	if err := engine.HandleReply(context.Background(), "applicant-1", "second"); err != nil {
		t.Fatalf("second reply failed: %v", err)
	}

	// two answers, completion, singleton ids, review message id
	if len(store.upserts) != 5 {
		t.Fatalf("expected five durable writes, got %d", len(store.upserts))
	}

	completion := store.upserts[2]
	if completion.FinishedAt == nil {
		t.Errorf("expected finish stamp on completion")
	}
	want := "Q: Q1?\nA: first\n\nQ: Q2?\nA: second\n"
	if completion.Transcript == nil || *completion.Transcript != want {
		t.Errorf("unexpected transcript: %q", deref(completion.Transcript))
	}

	if messenger.submitted != 1 {
		t.Errorf("expected one submitted summary, got %d", messenger.submitted)
	}
	summaryID := messenger.lastMessageID()

	singleton := store.upserts[3]
	if singleton.OutboundMessageIDs == nil || len(*singleton.OutboundMessageIDs) != 1 || (*singleton.OutboundMessageIDs)[0] != summaryID {
		t.Errorf("expected singleton summary id, got %v", singleton.OutboundMessageIDs)
	}
	if messenger.deleted[summaryID] {
		t.Errorf("expected summary message preserved by the sweep")
	}
	for _, id := range messenger.sent[:len(messenger.sent)-1] {
		if !messenger.deleted[id] {
			t.Errorf("expected pre-summary message %s swept", id)
		}
	}

	if board.posts != 1 {
		t.Errorf("expected one review post, got %d", board.posts)
	}
	reviewUpdate := store.upserts[4]
	if reviewUpdate.ReviewMessageID == nil || *reviewUpdate.ReviewMessageID != "board-1" {
		t.Errorf("expected review message id persisted, got %v", reviewUpdate.ReviewMessageID)
	}

	if _, err := states.Get(context.Background(), "applicant-1"); !errors.Is(err, ErrStateNotFound) {
		t.Errorf("expected state discarded after completion")
	}
}

func TestStart_NoQuestionsConfigured(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(nil, 0)

	if _, err := engine.Start(context.Background(), "applicant-1", "Applicant One"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

type flowStore struct {
	upserts []application.UpsertParams
}

func (f *flowStore) Upsert(ctx context.Context, params application.UpsertParams) (application.Application, error) {
	f.upserts = append(f.upserts, params)
	app := application.Application{
		ID:            params.ID,
		ApplicantID:   params.ApplicantID,
		ApplicantName: params.ApplicantName,
	}
	if params.Transcript != nil {
		app.Transcript = *params.Transcript
	}
	if params.OutboundMessageIDs != nil {
		app.OutboundMessageIDs = *params.OutboundMessageIDs
	}
	app.FinishedAt = params.FinishedAt
	return app, nil
}

type flowMessenger struct {
	seq        int
	sent       []string
	questions  []string
	welcomes   int
	submitted  int
	welcomeErr error
	deleted    map[string]bool
}

func (f *flowMessenger) nextID() string {
	f.seq++
	id := fmt.Sprintf("msg-%d", f.seq)
	f.sent = append(f.sent, id)
	return id
}

func (f *flowMessenger) lastMessageID() string {
	return f.sent[len(f.sent)-1]
}

func (f *flowMessenger) SendWelcome(ctx context.Context, applicantID, applicationID string) (string, error) {
	if f.welcomeErr != nil {
		return "", f.welcomeErr
	}
	f.welcomes++
	return f.nextID(), nil
}

func (f *flowMessenger) SendQuestion(ctx context.Context, applicantID, applicationID string, number, total int, text string) (string, error) {
	f.questions = append(f.questions, text)
	return f.nextID(), nil
}

func (f *flowMessenger) SendSubmitted(ctx context.Context, applicantID, applicationID string) (string, error) {
	f.submitted++
	return f.nextID(), nil
}

func (f *flowMessenger) SendResult(ctx context.Context, applicantID string, notice gateway.ResultNotice) (string, error) {
	return f.nextID(), nil
}

func (f *flowMessenger) DeleteMessage(ctx context.Context, applicantID, messageID string) error {
	if f.deleted == nil {
		f.deleted = make(map[string]bool)
	}
	f.deleted[messageID] = true
	return nil
}

func (f *flowMessenger) RecentMessageIDs(ctx context.Context, applicantID string, limit int) ([]string, error) {
	return nil, nil
}

type flowBoard struct {
	nextMessageID string
	posts         int
}

func (f *flowBoard) PostSubmission(ctx context.Context, app application.Application) (string, error) {
	f.posts++
	return f.nextMessageID, nil
}

func (f *flowBoard) RefreshSubmission(ctx context.Context, messageID string, app application.Application) error {
	return nil
}
