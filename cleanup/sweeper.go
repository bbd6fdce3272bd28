// Package cleanup implements the message-retention contract: at each
// lifecycle transition every system-sent private message is deleted except an
// explicit preserve set. Deletion is tidiness, not correctness, so every
// failure is swallowed.
package cleanup

import (
	"context"

	"go.uber.org/zap"

	"applyflow/gateway"
	"applyflow/metrics"
)

// DefaultLookback bounds the history scan that backstops the tracked id
// list. Messages sent outside the tracked list (crash between send and
// persist) are still caught within this window.
const DefaultLookback = 200

// Messenger is the slice of the platform boundary the sweeper needs.
type Messenger interface {
	DeleteMessage(ctx context.Context, applicantID, messageID string) error
	RecentMessageIDs(ctx context.Context, applicantID string, limit int) ([]string, error)
}

// Sweeper deletes system-sent messages from an applicant's private channel.
type Sweeper struct {
	messenger Messenger
	lookback  int
	log       *zap.Logger
}

func NewSweeper(messenger Messenger, log *zap.Logger) *Sweeper {
	return &Sweeper{
		messenger: messenger,
		lookback:  DefaultLookback,
		log:       log,
	}
}

// WithLookback overrides the bounded history scan size.
func (s *Sweeper) WithLookback(n int) *Sweeper {
	if n > 0 {
		s.lookback = n
	}
	return s
}

// Sweep deletes the recorded message ids except those in preserve, then scans
// the recent channel history and deletes any remaining system-sent messages
// not in preserve. Individual failures (already deleted, permission revoked,
// channel closed) never abort the remaining deletions.
func (s *Sweeper) Sweep(ctx context.Context, applicantID string, recorded, preserve []string) {
	keep := make(map[string]struct{}, len(preserve))
	for _, id := range preserve {
		keep[id] = struct{}{}
	}

	for _, id := range recorded {
		if _, ok := keep[id]; ok {
			continue
		}
		s.delete(ctx, applicantID, id)
	}

	recent, err := s.messenger.RecentMessageIDs(ctx, applicantID, s.lookback)
	if err != nil {
		s.log.Debug("cleanup history scan failed",
			zap.String("applicant_id", applicantID), zap.Error(err))
		return
	}
	for _, id := range recent {
		if _, ok := keep[id]; ok {
			continue
		}
		s.delete(ctx, applicantID, id)
	}
}

func (s *Sweeper) delete(ctx context.Context, applicantID, messageID string) {
	gateway.BestEffort(s.log, "delete message", func() error {
		if err := s.messenger.DeleteMessage(ctx, applicantID, messageID); err != nil {
			return err
		}
		metrics.MessagesSwept.Inc()
		return nil
	})
}
