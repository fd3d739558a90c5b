package admin

import (
	"errors"
)

var (
	ErrLessonConflict = errors.New("lesson already exists")
)
