package catalog

import (
	"errors"
)

var (
	ErrEmptyUpdate       = errors.New("no update fields provided")
	ErrAmbiguousUpdate   = errors.New("absolute availableSpace and relative delta in one update")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrInsufficientSpace = errors.New("insufficient available space")
)
