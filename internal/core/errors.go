package core

import "errors"

// Sentinel errors. Stores and workflows wrap these with fmt.Errorf("...: %w")
// so callers can branch with errors.Is.
var (
	// ErrValidationFailed marks a submission rejected by the validation stage.
	ErrValidationFailed = errors.New("validation failed")

	// ErrReferenceNotFound marks an item whose category does not exist.
	ErrReferenceNotFound = errors.New("referenced category not found")

	// ErrUniquenessConflict marks a name or SKU collision found before writing.
	ErrUniquenessConflict = errors.New("uniqueness conflict")

	// ErrNotFound is returned when the record being read, updated or deleted is absent.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable wraps infrastructure failures from a store backend.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateKey is returned by stores that enforce unique normalized keys.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCategoryInUse blocks deleting a category that items still reference.
	ErrCategoryInUse = errors.New("category in use")
)
