package orders

import (
	"errors"
)

var (
	ErrInvalidOrder      = errors.New("invalid order payload")
	ErrLessonNotFound    = errors.New("referenced lesson not found")
	ErrInsufficientSpace = errors.New("requested quantity exceeds remaining spaces")
	ErrOrderNotFound     = errors.New("order not found")
	ErrRateLimited       = errors.New("rate limited")
)
