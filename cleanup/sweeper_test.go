package cleanup

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type sweepMessenger struct {
	recent    []string
	recentErr error
	failIDs   map[string]bool
	deleted   []string
	scans     []int
}

func (f *sweepMessenger) DeleteMessage(ctx context.Context, applicantID, messageID string) error {
	if f.failIDs[messageID] {
		return errors.New("message already gone")
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *sweepMessenger) RecentMessageIDs(ctx context.Context, applicantID string, limit int) ([]string, error) {
	f.scans = append(f.scans, limit)
	return f.recent, f.recentErr
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestSweep_PreservesExcludedMessages(t *testing.T) {
	messenger := &sweepMessenger{}
	sweeper := NewSweeper(messenger, zap.NewNop())

	sweeper.Sweep(context.Background(), "applicant-1",
		[]string{"msg-1", "msg-2", "msg-3"}, []string{"msg-2"})

	if contains(messenger.deleted, "msg-2") {
		t.Errorf("expected msg-2 preserved, deleted %v", messenger.deleted)
	}
	for _, id := range []string{"msg-1", "msg-3"} {
		if !contains(messenger.deleted, id) {
			t.Errorf("expected %s deleted, deleted %v", id, messenger.deleted)
		}
	}
}

func TestSweep_HistoryScanCatchesUntrackedMessages(t *testing.T) {
	messenger := &sweepMessenger{recent: []string{"msg-9", "msg-2"}}
	sweeper := NewSweeper(messenger, zap.NewNop())

	sweeper.Sweep(context.Background(), "applicant-1", []string{"msg-1"}, []string{"msg-2"})

	if !contains(messenger.deleted, "msg-9") {
		t.Errorf("expected untracked msg-9 deleted, deleted %v", messenger.deleted)
	}
	if contains(messenger.deleted, "msg-2") {
		t.Errorf("expected msg-2 preserved in scan, deleted %v", messenger.deleted)
	}
	if len(messenger.scans) != 1 || messenger.scans[0] != DefaultLookback {
		t.Errorf("expected one scan with default lookback, got %v", messenger.scans)
	}
}

func TestSweep_LookbackOverride(t *testing.T) {
	messenger := &sweepMessenger{}
	sweeper := NewSweeper(messenger, zap.NewNop()).WithLookback(50)

	sweeper.Sweep(context.Background(), "applicant-1", nil, nil)

	if len(messenger.scans) != 1 || messenger.scans[0] != 50 {
		t.Errorf("expected scan limit 50, got %v", messenger.scans)
	}
}

func TestSweep_FailuresNeverAbort(t *testing.T) {
	messenger := &sweepMessenger{failIDs: map[string]bool{"msg-1": true}}
	sweeper := NewSweeper(messenger, zap.NewNop())

	sweeper.Sweep(context.Background(), "applicant-1", []string{"msg-1", "msg-2"}, nil)

	if !contains(messenger.deleted, "msg-2") {
		t.Errorf("expected sweep to continue past a failed delete, deleted %v", messenger.deleted)
	}
}

func TestSweep_ScanFailureSkipsScanOnly(t *testing.T) {
	messenger := &sweepMessenger{recentErr: errors.New("channel closed")}
	sweeper := NewSweeper(messenger, zap.NewNop())

	sweeper.Sweep(context.Background(), "applicant-1", []string{"msg-1"}, nil)

	if !contains(messenger.deleted, "msg-1") {
		t.Errorf("expected recorded ids deleted despite scan failure, deleted %v", messenger.deleted)
	}
}
