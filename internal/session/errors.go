package session

import "errors"

var (
	ErrModuleCompleted      = errors.New("module already completed")
	ErrInvalidPhase         = errors.New("operation not allowed in current session phase")
	ErrQuestionOutOfRange   = errors.New("question index out of range")
	ErrNoModules            = errors.New("session has no modules")
	ErrInvalidCheckpoint    = errors.New("checkpoint does not match session modules")
	ErrModuleNumberMismatch = errors.New("loaded module number does not match request")
)
