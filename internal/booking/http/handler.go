package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wavefm/station-backend/internal/auth"
	"github.com/wavefm/station-backend/internal/booking"
	"github.com/wavefm/station-backend/internal/pkg/request"
	"github.com/wavefm/station-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// List returns the schedule, optionally narrowed to a time window.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	filter, err := req.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid UUID")
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Create requests a slot. DJs book for themselves; staff may name any DJ.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, ok := auth.GetActor(c)
	if !ok {
		response.Abort(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		DJID:        body.DJID,
		Title:       body.Title,
		Description: body.Description,
		Start:       body.Start,
		End:         body.End,
	}, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// Update applies a status transition or an edit, depending on the body.
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid UUID")
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Empty() {
		response.Abort(c, http.StatusBadRequest, "nothing to update")
		return
	}

	actor, _ := auth.GetActor(c)
	ctx := c.Request.Context()

	var (
		b   *booking.Booking
		err error
	)
	if body.StatusOnly() {
		b, err = h.service.UpdateStatus(ctx, uri.ID, booking.Status(*body.Status), actor)
	} else {
		b, err = h.service.UpdateDetails(ctx, uri.ID, body.toUpdate(), actor)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Delete removes a booking and echoes the removed record.
func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid UUID")
		return
	}

	actor, _ := auth.GetActor(c)
	b, err := h.service.Delete(c.Request.Context(), uri.ID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}
