package http

import (
	"strings"
	"time"

	"github.com/wavefm/station-backend/internal/booking"
	"github.com/wavefm/station-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Start           string `form:"start"`
	End             string `form:"end"`
	Statuses        string `form:"statuses"` // comma-separated
	IncludeRejected bool   `form:"include_rejected"`
	DJID            string `form:"dj_id" binding:"omitempty,uuid"`
}

// Filter converts the query into a booking.Filter.
func (r *ListBookingsRequest) Filter() (booking.Filter, error) {
	r.Normalize()

	filter := booking.Filter{
		IncludeRejected: r.IncludeRejected,
		DJID:            r.DJID,
		Page:            r.Page,
		PageSize:        r.PageSize,
	}

	if r.Start != "" {
		t, err := time.Parse(time.RFC3339, r.Start)
		if err != nil {
			return filter, booking.ErrInvalidRange
		}
		filter.Start = &t
	}
	if r.End != "" {
		t, err := time.Parse(time.RFC3339, r.End)
		if err != nil {
			return filter, booking.ErrInvalidRange
		}
		filter.End = &t
	}

	for _, s := range strings.Split(r.Statuses, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		st := booking.Status(s)
		if !st.Valid() {
			return filter, booking.ErrInvalidStatus
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	return filter, nil
}

type CreateBookingRequest struct {
	DJID        string `json:"dj_id" binding:"omitempty,uuid"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end" binding:"required"`
}

type UpdateBookingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending approved rejected"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
}

// StatusOnly reports whether the body is a pure status transition.
func (r *UpdateBookingRequest) StatusOnly() bool {
	return r.Status != nil && r.Title == nil && r.Description == nil && r.Start == nil && r.End == nil
}

// Empty reports whether the body changes nothing.
func (r *UpdateBookingRequest) Empty() bool {
	return r.Status == nil && r.Title == nil && r.Description == nil && r.Start == nil && r.End == nil
}

func (r *UpdateBookingRequest) toUpdate() booking.UpdateRequest {
	req := booking.UpdateRequest{
		Title:       r.Title,
		Description: r.Description,
		Start:       r.Start,
		End:         r.End,
	}
	if r.Status != nil {
		st := booking.Status(*r.Status)
		req.Status = &st
	}
	return req
}

// PersonTag is a compact reference to a user.
type PersonTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DJTag struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type BookingResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DJ          DJTag      `json:"dj"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Status      string     `json:"status"`
	CreatedBy   PersonTag  `json:"created_by"`
	ActedBy     *PersonTag `json:"acted_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		DJ:          DJTag{ID: b.DJID, Name: b.DJName, Avatar: b.DJAvatar},
		Start:       b.Start,
		End:         b.End,
		Status:      string(b.Status),
		CreatedBy:   PersonTag{ID: b.CreatedByID, Name: b.CreatedByName},
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.ActedByID != nil {
		tag := PersonTag{ID: *b.ActedByID}
		if b.ActedByName != nil {
			tag.Name = *b.ActedByName
		}
		resp.ActedBy = &tag
	}
	return resp
}
