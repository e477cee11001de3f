package game

import (
	"errors"
	"fmt"
)

var (
	// ErrRoundNotFound — unknown or evicted roundId.
	ErrRoundNotFound = errors.New("round not found")

	// ErrInvalidTransition — the operation arrived in the wrong phase.
	// Soft error: callers should re-fetch state, not fail hard. Near-simultaneous
	// requests produce this routinely.
	ErrInvalidTransition = errors.New("invalid transition")

	ErrGameNotFound    = errors.New("game not found")
	ErrSessionNotFound = errors.New("session not found")
)

// GenerationError — the generation capability was unreachable or returned
// output we could not parse even after recovery.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate round: %s: %v", e.Reason, e.Err)
	}
	return "generate round: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// JudgingError — same as GenerationError, for the scoring side. Never masked
// as a low/zero score: that would corrupt leaderboards.
type JudgingError struct {
	Reason string
	Err    error
}

func (e *JudgingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("judge guess: %s: %v", e.Reason, e.Err)
	}
	return "judge guess: " + e.Reason
}

func (e *JudgingError) Unwrap() error { return e.Err }
