package pipeline

import "fmt"

// StageError wraps a collaborator fault with the item and stage it sank.
type StageError struct {
	Item  string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: stage %s: %v", e.Item, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
