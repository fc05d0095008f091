package model

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("rejected input")
	ErrConfirmation = errors.New("confirmation error")
)
