package booking

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wavefm/station-backend/internal/pkg/apperror"
)

var (
	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_booking_operations_total",
			Help: "Booking lifecycle operations by outcome",
		},
		[]string{"operation", "result"},
	)

	bookingConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_booking_conflicts_total",
			Help: "Bookings refused because of the schedule rules",
		},
		[]string{"kind"},
	)
)

// observe records the outcome of one lifecycle operation.
func observe(operation string, err error) {
	bookingOperations.WithLabelValues(operation, resultLabel(err)).Inc()

	switch {
	case errors.Is(err, ErrSlotConflict):
		bookingConflicts.WithLabelValues("slot").Inc()
	case errors.Is(err, ErrAdjacencyViolation):
		bookingConflicts.WithLabelValues("adjacency").Inc()
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
		return "rejected"
	}
	return "error"
}
