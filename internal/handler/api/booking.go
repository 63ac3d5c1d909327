package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	reqdto "shareit/internal/handler/dto/request"
	resdto "shareit/internal/handler/dto/response"
	"shareit/internal/handler/httperr"
	"shareit/internal/handler/middleware"
	"shareit/internal/pkg/errs"
	"shareit/internal/usecase/commands"
	"shareit/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Book an item for a time period; the booking starts in WAITING status
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}

	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if err := req.Validate(time.Now()); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking period", nil)
		return
	}

	view, err := h.cmds.Create(c.Request.Context(), userID, req.ItemID, req.Start, req.End)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromBookingView(view))
}

// @Summary Approve or reject booking
// @Description Resolve a WAITING booking; only the item owner may do so
// @Tags bookings
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param bookingId path string true "Booking ID"
// @Param approved query bool true "true to approve, false to reject"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{bookingId} [patch]
func (h *BookingHandler) Resolve(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return
	}
	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid approved parameter", nil)
		return
	}

	view, err := h.cmds.Resolve(c.Request.Context(), userID, bookingID, approved)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary Get booking
// @Description Get a booking by ID; visible to the booker and the item owner only
// @Tags bookings
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{bookingId} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), userID, bookingID)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List own bookings
// @Description List the caller's bookings filtered by state, newest start first
// @Tags bookings
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param state query string false "ALL, CURRENT, PAST, FUTURE, WAITING or REJECTED (default ALL)"
// @Param from query int false "Offset (default 0)"
// @Param size query int false "Page size (default 10)"
// @Success 200 {array} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) ListByBooker(c *gin.Context) {
	h.list(c, h.q.ListByBooker)
}

// @Summary List bookings of own items
// @Description List bookings of the caller's items filtered by state, newest start first
// @Tags bookings
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param state query string false "ALL, CURRENT, PAST, FUTURE, WAITING or REJECTED (default ALL)"
// @Param from query int false "Offset (default 0)"
// @Param size query int false "Page size (default 10)"
// @Success 200 {array} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/owner [get]
func (h *BookingHandler) ListByOwner(c *gin.Context) {
	h.list(c, h.q.ListByOwner)
}

func (h *BookingHandler) list(c *gin.Context, listFn func(ctx context.Context, userID uuid.UUID, state string, page queries.Page) ([]*queries.BookingView, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}

	state := c.DefaultQuery("state", "ALL")
	page := queries.Page{From: queryInt(c, "from", 0), Size: queryInt(c, "size", 10)}

	views, err := listFn(c.Request.Context(), userID, state, page)
	if err != nil {
		if errs.Is(err, queries.ErrUnknownBookingState) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Unknown state: "+state, nil)
			return
		}
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingViews(views))
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	iv, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return iv
}

// Authorization failures deliberately share the not-found responses so
// resource existence does not leak. Sentinels arrive as markers on domain
// causes, so matching goes through errs.Is.
func abortBookingError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, commands.ErrUserNotFound),
		errs.Is(err, queries.ErrUserNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "User not found", nil)
	case errs.Is(err, commands.ErrItemNotFound),
		errs.Is(err, commands.ErrNotItemOwner):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Item not found", nil)
	case errs.Is(err, commands.ErrBookingNotFound),
		errs.Is(err, queries.ErrBookingNotFound),
		errs.Is(err, queries.ErrBookingAccessDenied):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errs.Is(err, commands.ErrOwnItemBooking):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Cannot book own item", nil)
	case errs.Is(err, commands.ErrItemUnavailable):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Item is unavailable", nil)
	case errs.Is(err, queries.ErrUnknownBookingState):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unknown state", nil)
	case errs.Is(err, commands.ErrBookingStatusConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking already resolved to this status", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
