package httpgin

import (
	"strconv"
	"time"

	"github.com/oakdale/lessongo/internal/domain"
)

type LessonResponse struct {
	ID             string  `json:"id"`
	Subject        string  `json:"subject"`
	Location       string  `json:"location"`
	Price          float64 `json:"price"`
	AvailableSpace int     `json:"availableSpace"`
	Icon           string  `json:"icon"`
}

// UpdateLessonRequest carries a partial lesson update. incSpaces is a signed
// relative adjustment of availableSpace; all other fields are absolute
// assignments applied verbatim.
type UpdateLessonRequest struct {
	Subject        *string  `json:"subject"`
	Location       *string  `json:"location"`
	Price          *float64 `json:"price"`
	AvailableSpace *int     `json:"availableSpace"`
	Icon           *string  `json:"icon"`
	IncSpaces      *int     `json:"incSpaces"`
}

type OrderLineInput struct {
	ID       string `json:"id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Name      string           `json:"name" binding:"required"`
	Phone     string           `json:"phone" binding:"required"`
	Lessons   []OrderLineInput `json:"lessons" binding:"required,min=1,dive"`
	CreatedAt string           `json:"createdAt"`
}

type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
}

type OrderLineResponse struct {
	LessonID string `json:"lessonId"`
	Quantity int    `json:"quantity"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Phone     string              `json:"phone"`
	Lessons   []OrderLineResponse `json:"lessons"`
	CreatedAt time.Time           `json:"createdAt"`
}

type CreateLessonRequest struct {
	Subject        string  `json:"subject" binding:"required"`
	Location       string  `json:"location" binding:"required"`
	Price          float64 `json:"price" binding:"gte=0"`
	AvailableSpace int     `json:"availableSpace" binding:"gte=0"`
	Icon           string  `json:"icon"`
}

type BatchCreateLessonsRequest struct {
	Lessons []CreateLessonRequest `json:"lessons" binding:"required,min=1,dive"`
}

type CreateLessonResponse struct {
	LessonID string `json:"lesson_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Store-native identity never crosses the boundary unconverted: lesson and
// order IDs are marshaled to plain strings here.
func toLessonResponse(l domain.Lesson) LessonResponse {
	return LessonResponse{
		ID:             strconv.FormatInt(l.ID, 10),
		Subject:        l.Subject,
		Location:       l.Location,
		Price:          l.Price,
		AvailableSpace: l.AvailableSpace,
		Icon:           l.Icon,
	}
}

func toLessonResponses(lessons []domain.Lesson) []LessonResponse {
	out := make([]LessonResponse, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, toLessonResponse(l))
	}
	return out
}

func toOrderResponse(o *domain.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, ln := range o.Lines {
		lines = append(lines, OrderLineResponse{
			LessonID: strconv.FormatInt(ln.LessonID, 10),
			Quantity: ln.Quantity,
		})
	}

	return OrderResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Phone:     o.Phone,
		Lessons:   lines,
		CreatedAt: o.CreatedAt,
	}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
