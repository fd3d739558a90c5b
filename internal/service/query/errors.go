package query

import (
	"errors"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
)
