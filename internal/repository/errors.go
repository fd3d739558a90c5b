package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientSpace = errors.New("insufficient available space")
	ErrEmptyUpdate       = errors.New("update carries no changes")
)
