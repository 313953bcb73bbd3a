package arfs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue is returned when a value type fails validation.
	ErrInvalidValue = errors.New("invalid value")

	// ErrEntityNotFound is returned when a lookup query yields no transactions.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidState is returned when a builder cannot assemble a complete entity.
	ErrInvalidState = errors.New("invalid entity state")

	// ErrInvalidCustomMetaData is returned when custom metadata collides with
	// protocol tags or carries empty values.
	ErrInvalidCustomMetaData = errors.New("invalid custom metadata")

	// ErrNoKey is returned when a private entity is requested without any key
	// material to decrypt it.
	ErrNoKey = errors.New("no key available")

	ErrSubtreePaths      = errors.New("can't compute paths from sub-tree")
	ErrFolderNotFound    = errors.New("folder not found in hierarchy")
	ErrDisjointHierarchy = errors.New("folder is not connected to the hierarchy root")
)

// NotFoundError reports which entity a lookup failed to find.
type NotFoundError struct {
	ID EntityID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Entity with ID %s not found!", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrEntityNotFound }

// InvalidStateError reports why a builder rejected an entity.
type InvalidStateError struct {
	Kind   EntityType
	TxID   Address
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.TxID != "" {
		return fmt.Sprintf("invalid %s state (tx %s): %s", e.Kind, e.TxID, e.Reason)
	}
	return fmt.Sprintf("invalid %s state: %s", e.Kind, e.Reason)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
