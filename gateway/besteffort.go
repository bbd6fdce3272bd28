package gateway

import "go.uber.org/zap"

// BestEffort attempts an action whose failure affects tidiness, not
// correctness: any error is logged and swallowed. Platform calls that must
// not abort their surrounding workflow go through this helper rather than
// suppressing errors inline.
func BestEffort(log *zap.Logger, op string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn("best-effort operation failed", zap.String("op", op), zap.Error(err))
	}
}
