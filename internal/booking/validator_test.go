package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefm/station-backend/internal/booking"
)

func TestValidator(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	late := f.lunaLateShow(t)
	v := booking.NewValidator(f.repo, f.dir)

	t.Run("Free slot", func(t *testing.T) {
		got, err := v.Validate(ctx, booking.Candidate{DJID: rushID, Start: at(2, 2, 0), End: at(2, 3, 0)})
		require.NoError(t, err)
		assert.Equal(t, rushID, got.DJ.ID)
		assert.Equal(t, time.UTC, got.End.Location())
	})

	t.Run("Rejections", func(t *testing.T) {
		cases := []struct {
			name string
			c    booking.Candidate
			want error
		}{
			{"inverted", booking.Candidate{DJID: lunaID, Start: at(3, 10, 0), End: at(3, 9, 0)}, booking.ErrInvalidRange},
			{"unknown dj", booking.Candidate{DJID: ghostID, Start: at(3, 10, 0), End: at(3, 11, 0)}, booking.ErrDJNotFound},
			{"overlap", booking.Candidate{DJID: rushID, Start: at(1, 22, 30), End: at(1, 23, 30)}, booking.ErrSlotConflict},
			{"adjacent", booking.Candidate{DJID: lunaID, Start: at(2, 2, 2), End: at(2, 4, 0)}, booking.ErrAdjacencyViolation},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := v.Validate(ctx, tc.c)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})

	t.Run("Excluded booking does not conflict with itself", func(t *testing.T) {
		_, err := v.Validate(ctx, booking.Candidate{
			DJID: lunaID, Start: at(1, 22, 1), End: at(2, 2, 1), ExcludeBookingID: late.ID,
		})
		assert.NoError(t, err)
	})

	assert.Equal(t, 1, f.repo.Len())
}
