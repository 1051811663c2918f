package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wavefm/station-backend/internal/pkg/apperror"
	"github.com/wavefm/station-backend/internal/user"
)

// Candidate is a proposed slot for a DJ, as received from the caller.
type Candidate struct {
	DJID             string
	Start            string // RFC 3339
	End              string // RFC 3339
	ExcludeBookingID string
}

// Validated is a candidate that passed every check, ready to be stored.
type Validated struct {
	DJ    *user.Profile
	Start time.Time
	End   time.Time
}

// Validator decides whether a slot may be committed. It never writes.
//
// Overlap is checked against every DJ because the station has a single stream;
// the adjacency buffer only applies between bookings of the same DJ.
type Validator struct {
	repo      Repository
	directory user.Directory
	buffer    time.Duration
}

func NewValidator(repo Repository, directory user.Directory) *Validator {
	return &Validator{repo: repo, directory: directory, buffer: AdjacencyBuffer}
}

// using returns a copy of v reading through repo, typically a locked transaction.
func (v *Validator) using(repo Repository) *Validator {
	cp := *v
	cp.repo = repo
	return &cp
}

func (v *Validator) Validate(ctx context.Context, c Candidate) (*Validated, error) {
	prepared, err := v.prepare(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := v.checkConflicts(ctx, prepared.DJ.ID, prepared.Start, prepared.End, c.ExcludeBookingID); err != nil {
		return nil, err
	}
	return prepared, nil
}

// prepare runs the checks that do not read the schedule: range and DJ.
// It goes through the directory, so it must run before the schedule lock is taken.
func (v *Validator) prepare(ctx context.Context, c Candidate) (*Validated, error) {
	start, end, err := ParseRange(c.Start, c.End)
	if err != nil {
		return nil, err
	}

	dj, err := v.resolveDJ(ctx, c.DJID)
	if err != nil {
		return nil, err
	}

	return &Validated{DJ: dj, Start: start, End: end}, nil
}

// ParseRange parses RFC 3339 bounds and requires end > start. Results are UTC.
func ParseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start.UTC(), end.UTC(), nil
}

func (v *Validator) resolveDJ(ctx context.Context, djID string) (*user.Profile, error) {
	if _, err := uuid.Parse(djID); err != nil {
		return nil, ErrDJNotFound
	}

	dj, err := v.directory.GetProfile(ctx, djID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrDJNotFound
		}
		return nil, apperror.Internal(fmt.Errorf("resolve dj %s: %w", djID, err))
	}
	if !dj.IsDJ() {
		return nil, ErrDJNotFound
	}
	return dj, nil
}

// checkConflicts runs the overlap pass, then the same-DJ adjacency pass.
func (v *Validator) checkConflicts(ctx context.Context, djID string, start, end time.Time, excludeBookingID string) error {
	overlap, err := v.repo.HasOverlap(ctx, start, end, excludeBookingID)
	if err != nil {
		return err
	}
	if overlap {
		return ErrSlotConflict
	}

	adjacent, err := v.repo.HasAdjacent(ctx, djID, start, end, v.buffer, excludeBookingID)
	if err != nil {
		return err
	}
	if adjacent {
		return ErrAdjacencyViolation
	}
	return nil
}
