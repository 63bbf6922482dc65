package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when an event references a quiz id with no active session.
	ErrSessionNotFound = errors.New("live session not found")
	// ErrUserNotFound indicates the participant directory has no entry for a user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyStarted is returned when start is requested on a session past WaitingForStart.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNotActive is returned when a vote or advance arrives outside QuestionActive.
	ErrNotActive = errors.New("no question is active")
	// ErrStaleVote is returned when a vote targets a question other than the current one.
	ErrStaleVote = errors.New("vote targets a stale question")
	// ErrDuplicateVote is returned when a participant votes twice on the same question.
	ErrDuplicateVote = errors.New("participant already voted on this question")
	// ErrOutOfSequence is returned when an advance skips ahead or goes backward.
	ErrOutOfSequence = errors.New("advance index out of sequence")
)
