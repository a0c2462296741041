package practice

import "errors"

var (
	// ErrNoWordsAvailable is returned by Start when nothing is due or near due.
	ErrNoWordsAvailable = errors.New("no words available for practice")
	// ErrGenerationFailure matches every *GenerationError.
	ErrGenerationFailure = errors.New("question generation failed")
	// ErrInvalidTransition is returned for operations the session state does not allow.
	ErrInvalidTransition = errors.New("invalid practice transition")
	// ErrStaleQuestion is returned when an answer names a question that is
	// no longer the current one.
	ErrStaleQuestion = errors.New("answer is for a question that is no longer current")
	// ErrNoSession is returned when the owner has no active session.
	ErrNoSession = errors.New("no active practice session")
	// ErrDataConsistencyRisk accompanies an answer result whose outcome could
	// not be persisted.
	ErrDataConsistencyRisk = errors.New("practice outcome was not persisted")
)

// GenerationError carries the collaborator's failure for one word. Its message
// is the collaborator's message unchanged.
type GenerationError struct {
	Word string
	Err  error
}

func (e *GenerationError) Error() string {
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrGenerationFailure) match.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailure
}
