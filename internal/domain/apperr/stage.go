package apperr

import (
	"fmt"

	"skin-advisor/internal/domain/entity"
)

// StageError сбой конвейера на конкретном этапе. Metadata содержит снимок
// метаданных этапов на момент сбоя.
type StageError struct {
	Stage    entity.Stage
	Metadata entity.StageMetadataSet
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s) failed: %v", e.Stage, e.Stage.Title(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
