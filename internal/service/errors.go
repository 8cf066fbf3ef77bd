package service

import (
	"fmt"

	"github.com/scanvault/api/internal/model"
)

// PersistenceError reports a vendor job that exists upstream but could not be
// recorded locally. The job id is needed for manual reconciliation.
type PersistenceError struct {
	JobID string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("job %s accepted by vendor but not recorded: %v", e.JobID, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == model.ErrLocalPersistenceFailed
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrLocalPersistenceFailed, err)
}
