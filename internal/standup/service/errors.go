package service

import "errors"

var (
	// ErrValidation reports malformed input shape.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound reports a referenced instance, member or config absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken is the single opaque outcome of magic-token
	// validation. Callers can never distinguish expired, wrong org,
	// instance closed or member removed from one another.
	ErrInvalidToken = errors.New("invalid token")

	// ErrAlreadySubmitted reports a member who already has answers
	// recorded for the instance.
	ErrAlreadySubmitted = errors.New("response already submitted")

	// ErrWindowClosed reports an action against an instance outside its
	// response window or no longer collecting.
	ErrWindowClosed = errors.New("response window closed")

	// ErrBadQuestionIndex reports an answer index outside the instance's
	// frozen question list. The whole submission is rejected.
	ErrBadQuestionIndex = errors.New("question index out of range")

	// ErrWorkspaceLinked reports a link attempt against a workspace that
	// is already linked to a different organization.
	ErrWorkspaceLinked = errors.New("workspace already linked to another organization")
)
