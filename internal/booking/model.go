package booking

import (
	"net/http"
	"time"

	"github.com/wavefm/station-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidRange       = apperror.New(http.StatusBadRequest, "start and end must be valid ISO-8601 timestamps with end after start")
	ErrDJNotFound         = apperror.New(http.StatusBadRequest, "dj not found")
	ErrSlotConflict       = apperror.New(http.StatusBadRequest, "this time slot is already booked")
	ErrAdjacencyViolation = apperror.New(http.StatusBadRequest, "no back-to-back shows: leave at least a 5 minute break between this DJ's bookings")
	ErrInvalidStatus      = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrTitleRequired      = apperror.New(http.StatusBadRequest, "title is required")
	ErrPermissionDenied   = apperror.New(http.StatusUnauthorized, "unauthorized")
)

// AdjacencyBuffer is the minimum gap between two active bookings of the same DJ.
const AdjacencyBuffer = 5 * time.Minute

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ActiveStatuses are the statuses that hold air time and take part in conflict checks.
var ActiveStatuses = []Status{StatusPending, StatusApproved}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// Booking is a reserved on-air slot. DJName and DJAvatar are a snapshot taken
// when the booking was made and are not kept in sync with the DJ's profile.
type Booking struct {
	ID            string
	Title         string
	Description   string
	DJID          string
	DJName        string
	DJAvatar      string
	Start         time.Time
	End           time.Time
	Status        Status
	CreatedByID   string
	CreatedByName string
	ActedByID     *string
	ActedByName   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter selects bookings whose interval intersects [Start, End].
// A nil bound leaves that side open.
type Filter struct {
	Start           *time.Time
	End             *time.Time
	Statuses        []Status
	IncludeRejected bool
	DJID            string
	Page            int
	PageSize        int
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// TooClose reports whether a booking [start, end) would sit within buffer of
// existing on either side: |existing.End - start| < buffer or |end - existing.Start| < buffer.
func TooClose(existing *Booking, start, end time.Time, buffer time.Duration) bool {
	return absDuration(existing.End.Sub(start)) < buffer || absDuration(end.Sub(existing.Start)) < buffer
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
