package Services

import (
	"errors"
	"fmt"

	"TaskLedger/Models"

	"gorm.io/gorm"
)

// DuplicateClaimMessage is shown verbatim to the employee.
const DuplicateClaimMessage = "This task has already been claimed."

// ValidationError is bad input the caller can correct.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DuplicateClaimError means (platform, task id) is already claimed by someone.
type DuplicateClaimError struct {
	Platform       Models.Platform
	TaskExternalID string
}

func (e *DuplicateClaimError) Error() string {
	return DuplicateClaimMessage
}

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func notFoundOr(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}
