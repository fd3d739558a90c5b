package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is a purchasable after-school offering with finite seat capacity.
type Lesson struct {
	ID             int64
	Subject        string
	Location       string
	Price          float64
	AvailableSpace int
	Icon           string
}

// LessonUpdate is a partial update applied to a single lesson. Nil fields are
// left untouched. SpaceDelta is relative and applied to AvailableSpace in the
// same write as the field assignments.
type LessonUpdate struct {
	Subject        *string
	Location       *string
	Price          *float64
	AvailableSpace *int
	Icon           *string
	SpaceDelta     *int
}

// Empty reports whether the update carries neither a field assignment nor a
// space delta.
func (u LessonUpdate) Empty() bool {
	return u.Subject == nil &&
		u.Location == nil &&
		u.Price == nil &&
		u.AvailableSpace == nil &&
		u.Icon == nil &&
		u.SpaceDelta == nil
}

type OrderLine struct {
	LessonID int64
	Quantity int
}

// Order is a customer's reservation of one or more lesson quantities.
// Orders are immutable once created.
type Order struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Lines     []OrderLine
	CreatedAt time.Time
}
