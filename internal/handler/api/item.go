package api

import (
	"errors"
	"net/http"

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

type ItemHandler struct {
	cmds commands.ItemCommands
	q    queries.ItemQueries
}

func NewItemHandler(cmds commands.ItemCommands, q queries.ItemQueries) *ItemHandler {
	return &ItemHandler{cmds: cmds, q: q}
}

// @Summary Create item
// @Description List a new item owned by the caller
// @Tags items
// @Accept json
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param request body reqdto.CreateItemRequest true "Item request"
// @Success 201 {object} resdto.ItemResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}

	var req reqdto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	view, err := h.cmds.Create(c.Request.Context(), userID, req.Name, req.Description, *req.Available)
	if err != nil {
		abortItemError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromItemView(view))
}

// @Summary Update item availability
// @Description Toggle whether the item accepts new bookings; owner only
// @Tags items
// @Accept json
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param itemId path string true "Item ID"
// @Param request body reqdto.UpdateItemAvailabilityRequest true "Availability request"
// @Success 200 {object} resdto.ItemResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /items/{itemId} [patch]
func (h *ItemHandler) UpdateAvailability(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item id", nil)
		return
	}

	var req reqdto.UpdateItemAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	view, err := h.cmds.UpdateAvailability(c.Request.Context(), userID, itemID, *req.Available)
	if err != nil {
		abortItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromItemView(view))
}

// @Summary Get item
// @Description Get an item with comments; last/next booking shown to the owner only
// @Tags items
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} resdto.ItemResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /items/{itemId} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item id", nil)
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), userID, itemID)
	if err != nil {
		abortItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromItemView(view))
}

// @Summary List own items
// @Description List the caller's items, each annotated with last/next booking
// @Tags items
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Success 200 {array} resdto.ItemResponse
// @Failure 404 {object} httperr.Response
// @Router /items [get]
func (h *ItemHandler) ListByOwner(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}

	views, err := h.q.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		abortItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromItemViews(views))
}

// @Summary Add comment
// @Description Comment on an item; requires a completed booking of the item by the caller
// @Tags items
// @Accept json
// @Produce json
// @Param X-Sharer-User-Id header string true "Caller user ID"
// @Param itemId path string true "Item ID"
// @Param request body reqdto.CreateCommentRequest true "Comment request"
// @Success 200 {object} resdto.CommentResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /items/{itemId}/comment [post]
func (h *ItemHandler) AddComment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user id missing from context"), "Internal server error", nil)
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item id", nil)
		return
	}

	var req reqdto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	view, err := h.cmds.AddComment(c.Request.Context(), userID, itemID, req.Text)
	if err != nil {
		abortItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCommentView(view))
}

// Sentinels arrive as markers on domain causes, so matching goes through
// errs.Is.
func abortItemError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, commands.ErrUserNotFound),
		errs.Is(err, queries.ErrUserNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "User not found", nil)
	case errs.Is(err, commands.ErrItemNotFound),
		errs.Is(err, queries.ErrItemNotFound),
		errs.Is(err, commands.ErrNotItemOwner):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Item not found", nil)
	case errs.Is(err, commands.ErrInvalidItem):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item", nil)
	case errs.Is(err, commands.ErrCommentNotAllowed):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Commenting requires a completed booking", nil)
	case errs.Is(err, commands.ErrInvalidComment):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid comment", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
