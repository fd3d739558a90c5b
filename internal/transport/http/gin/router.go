package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oakdale/lessongo/internal/domain"
	redisrepo "github.com/oakdale/lessongo/internal/repository/redis"
	"github.com/oakdale/lessongo/internal/service"
	"github.com/oakdale/lessongo/internal/service/admin"
	"github.com/oakdale/lessongo/internal/service/catalog"
	"github.com/oakdale/lessongo/internal/service/orders"
	"github.com/oakdale/lessongo/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	api := r.Group("/api")
	{
		api.GET("/lessons", handleListLessons(svcs))
		api.GET("/lessons/:id", handleGetLesson(svcs))
		api.GET("/search", handleSearchLessons(svcs))

		api.PUT("/lessons/:id", handleUpdateLesson(svcs))

		api.POST("/orders", handleCreateOrder(svcs, idem))
		api.GET("/orders/:id", handleGetOrder(svcs))
	}

	// Admin API: out-of-band lesson seeding/import
	adm := r.Group("/admin")
	{
		adm.POST("/lessons", handleCreateLesson(svcs))
		adm.POST("/lessons/batch", handleBatchCreateLessons(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List lessons
// @Success  200  {array}  LessonResponse
// @Router   /api/lessons [get]
func handleListLessons(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lessons, err := svcs.Query.ListLessons(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, toLessonResponses(lessons), "public, max-age=15", true)
	}
}

// @Summary  Get lesson
// @Param    id  path  string  true  "Lesson ID"
// @Success  200  {object}  LessonResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /api/lessons/{id} [get]
func handleGetLesson(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lessonID, ok := parseLessonIDParam(c, "id")
		if !ok {
			return
		}
		l, err := svcs.Query.GetLesson(c.Request.Context(), lessonID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, toLessonResponse(*l), "public, max-age=60", true)
	}
}

// @Summary  Search lessons
// @Param    q  query  string  false  "free-form query"
// @Success  200  {array}  LessonResponse
// @Router   /api/search [get]
func handleSearchLessons(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lessons, err := svcs.Query.SearchLessons(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toLessonResponses(lessons))
	}
}

// @Summary  Update lesson fields and/or adjust spaces
// @Param    id   path  string  true  "Lesson ID"
// @Param    req  body  UpdateLessonRequest true "payload"
// @Success  200  {object}  LessonResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse "spaces exhausted"
// @Router   /api/lessons/{id} [put]
func handleUpdateLesson(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lessonID, ok := parseLessonIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateLessonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		upd := domain.LessonUpdate{
			Subject:        req.Subject,
			Location:       req.Location,
			Price:          req.Price,
			AvailableSpace: req.AvailableSpace,
			Icon:           req.Icon,
			SpaceDelta:     req.IncSpaces,
		}

		l, err := svcs.Catalog.UpdateLesson(c.Request.Context(), lessonID, upd)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toLessonResponse(*l))
	}
}

// @Summary  Place order (idempotent)
// @Param    req body  CreateOrderRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateOrderResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "lesson not found"
// @Failure  409 {object} ErrorResponse "insufficient spaces / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /api/orders [post]
func handleCreateOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		o := &domain.Order{
			Name:  req.Name,
			Phone: req.Phone,
		}

		for _, ln := range req.Lessons {
			lessonID, err := strconv.ParseInt(ln.ID, 10, 64)
			if err != nil {
				badRequest(c, "invalid lesson id: "+ln.ID)
				return
			}
			o.Lines = append(o.Lines, domain.OrderLine{
				LessonID: lessonID,
				Quantity: ln.Quantity,
			})
		}

		if req.CreatedAt != "" {
			createdAt, err := parseRFC3339(req.CreatedAt)
			if err != nil {
				badRequest(c, "invalid createdAt (RFC3339)")
				return
			}
			o.CreatedAt = createdAt
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemOrder(idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		orderID, err := svcs.Orders.PlaceOrder(c.Request.Context(), o, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, orders.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: "rate limited"},
				)
				return
			}
			respondErr(c, err)
			return
		}

		resp := CreateOrderResponse{OrderID: orderID.String()}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get order with line items
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} OrderResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/orders/{id} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid order id")
			return
		}
		o, err := svcs.Orders.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(o))
	}
}

// @Summary  Create lesson
// @Param    req body  CreateLessonRequest true "payload"
// @Success  201 {object} CreateLessonResponse
// @Router   /admin/lessons [post]
func handleCreateLesson(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLessonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := svcs.Admin.CreateLesson(c.Request.Context(), domain.Lesson{
			Subject:        req.Subject,
			Location:       req.Location,
			Price:          req.Price,
			AvailableSpace: req.AvailableSpace,
			Icon:           req.Icon,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateLessonResponse{
			LessonID: strconv.FormatInt(id, 10),
		})
	}
}

// @Summary  Batch import lessons
// @Param    req body  BatchCreateLessonsRequest true "payload"
// @Success  201 {object} map[string]int
// @Router   /admin/lessons/batch [post]
func handleBatchCreateLessons(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchCreateLessonsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		var lessons []domain.Lesson
		for _, l := range req.Lessons {
			lessons = append(lessons, domain.Lesson{
				Subject:        l.Subject,
				Location:       l.Location,
				Price:          l.Price,
				AvailableSpace: l.AvailableSpace,
				Icon:           l.Icon,
			})
		}
		if err := svcs.Admin.BatchCreateLessons(c.Request.Context(), lessons); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"created": len(lessons)})
	}
}

// --- Helpers ---

func parseLessonIDParam(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// caller errors
	case errors.Is(err, orders.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order payload"})
		return
	case errors.Is(err, catalog.ErrEmptyUpdate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no valid update fields provided"})
		return
	case errors.Is(err, catalog.ErrAmbiguousUpdate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "availableSpace and incSpaces are mutually exclusive"})
		return
	// missing entities
	case errors.Is(err, query.ErrLessonNotFound),
		errors.Is(err, catalog.ErrLessonNotFound),
		errors.Is(err, orders.ErrLessonNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "lesson not found"})
		return
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
		return
	// capacity invariant
	case errors.Is(err, catalog.ErrInsufficientSpace),
		errors.Is(err, orders.ErrInsufficientSpace):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "insufficient available space"})
		return
	// admin service
	case errors.Is(err, admin.ErrLessonConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "lesson conflict"})
		return
	}

	// store failures and everything unrecognized
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
