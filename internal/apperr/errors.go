package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnparsableTitle = errors.New("unparsable remote title")
	ErrDetached        = errors.New("document has no remote binding")
)
