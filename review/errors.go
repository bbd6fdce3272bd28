package review

import "errors"

var (
	// ErrNotFound signals an unknown application id.
	ErrNotFound = errors.New("review: application not found")
	// ErrUnauthorized signals the actor lacks the reviewer capability.
	ErrUnauthorized = errors.New("review: not authorized")
	// ErrForbidden signals the application is claimed by a different actor.
	ErrForbidden = errors.New("review: claimed by another reviewer")
	// ErrAlreadyClaimed signals a claim on an already-claimed application.
	ErrAlreadyClaimed = errors.New("review: already claimed")
	// ErrInvalidScale signals a scale outside {5, 10, 50, 100}.
	ErrInvalidScale = errors.New("review: scale must be one of 5, 10, 50, 100")
	// ErrInvalidFormat signals malformed review input.
	ErrInvalidFormat = errors.New("review: malformed input")
	// ErrScoreRequired signals a decision attempted before any score.
	ErrScoreRequired = errors.New("review: score required before decision")
	// ErrAlreadyDecided signals a conflicting decision after the first one.
	ErrAlreadyDecided = errors.New("review: decision already recorded")
)
