package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wavefm/station-backend/internal/auth"
	"github.com/wavefm/station-backend/internal/pkg/apperror"
	"github.com/wavefm/station-backend/internal/user"
)

type CreateRequest struct {
	DJID        string // defaults to the requester
	Title       string
	Description string
	Start       string // RFC 3339
	End         string // RFC 3339
}

// UpdateRequest holds the fields to change; nil means unchanged.
type UpdateRequest struct {
	Title       *string
	Description *string
	Status      *Status
	Start       *string
	End         *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest, requestedBy auth.Actor) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, id string, status Status, actedBy auth.Actor) (*Booking, error)
	UpdateDetails(ctx context.Context, id string, req UpdateRequest, actedBy auth.Actor) (*Booking, error)
	Delete(ctx context.Context, id string, actedBy auth.Actor) (*Booking, error)
}

type service struct {
	repo      Repository
	validator *Validator
	notifier  Notifier
	now       func() time.Time
}

// NewService creates the booking lifecycle service. notifier may be nil.
func NewService(repo Repository, directory user.Directory, notifier Notifier) Service {
	return &service{
		repo:      repo,
		validator: NewValidator(repo, directory),
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// storeError passes classified errors through and hides everything else behind a 500.
func storeError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal(err)
}

func (s *service) publish(ctx context.Context, t EventType, b *Booking, actor auth.Actor) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, newEvent(t, b, actor.ID, s.now())); err != nil {
		slog.Warn("booking event not delivered", "type", t, "booking_id", b.ID, "error", err)
	}
}

// stamp records who touched the booking and when.
func (s *service) stamp(b *Booking, actor auth.Actor) {
	id, name := actor.ID, actor.DisplayName
	b.ActedByID = &id
	b.ActedByName = &name
	b.UpdatedAt = s.now()
}

func (s *service) Create(ctx context.Context, req CreateRequest, requestedBy auth.Actor) (*Booking, error) {
	b, err := s.create(ctx, req, requestedBy)
	observe("create", err)
	if err != nil {
		return nil, err
	}

	slog.Info("booking requested", "booking_id", b.ID, "dj_id", b.DJID, "start", b.Start, "end", b.End, "requested_by", requestedBy.ID)
	s.publish(ctx, EventCreated, b, requestedBy)
	return b, nil
}

func (s *service) create(ctx context.Context, req CreateRequest, requestedBy auth.Actor) (*Booking, error) {
	if requestedBy.ID == "" {
		return nil, ErrPermissionDenied
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	djID := req.DJID
	if djID == "" {
		djID = requestedBy.ID
	}
	if djID != requestedBy.ID && !requestedBy.IsPrivileged() {
		return nil, ErrPermissionDenied
	}

	v, err := s.validator.prepare(ctx, Candidate{DJID: djID, Start: req.Start, End: req.End})
	if err != nil {
		return nil, storeError(err)
	}

	var created *Booking
	err = s.repo.RunLocked(ctx, func(repo Repository) error {
		if err := s.validator.using(repo).checkConflicts(ctx, v.DJ.ID, v.Start, v.End, ""); err != nil {
			return err
		}

		now := s.now()
		b := &Booking{
			ID:            uuid.NewString(),
			Title:         title,
			Description:   strings.TrimSpace(req.Description),
			DJID:          v.DJ.ID,
			DJName:        v.DJ.DisplayName,
			DJAvatar:      v.DJ.AvatarURL,
			Start:         v.Start,
			End:           v.End,
			Status:        StatusPending,
			CreatedByID:   requestedBy.ID,
			CreatedByName: requestedBy.DisplayName,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.Create(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, 0, ErrInvalidRange
	}

	if len(filter.Statuses) == 0 {
		filter.Statuses = append([]Status{}, ActiveStatuses...)
		if filter.IncludeRejected {
			filter.Statuses = append(filter.Statuses, StatusRejected)
		}
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, 0, ErrInvalidStatus
		}
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return bookings, total, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status, actedBy auth.Actor) (*Booking, error) {
	b, err := s.updateStatus(ctx, id, status, actedBy)
	observe("update_status", err)
	if err != nil {
		return nil, err
	}

	slog.Info("booking status changed", "booking_id", b.ID, "status", b.Status, "acted_by", actedBy.ID)
	s.publish(ctx, EventStatusChanged, b, actedBy)
	return b, nil
}

func (s *service) updateStatus(ctx context.Context, id string, status Status, actedBy auth.Actor) (*Booking, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if !actedBy.IsPrivileged() {
		return nil, ErrPermissionDenied
	}

	var updated *Booking
	err := s.repo.RunLocked(ctx, func(repo Repository) error {
		b, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		// A rejected booking no longer holds its slot; taking it back needs the slot to be free.
		if status.IsActive() && !b.Status.IsActive() {
			if err := s.validator.using(repo).checkConflicts(ctx, b.DJID, b.Start, b.End, b.ID); err != nil {
				return err
			}
		}

		b.Status = status
		s.stamp(b, actedBy)
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

func (s *service) UpdateDetails(ctx context.Context, id string, req UpdateRequest, actedBy auth.Actor) (*Booking, error) {
	b, err := s.updateDetails(ctx, id, req, actedBy)
	observe("update_details", err)
	if err != nil {
		return nil, err
	}

	slog.Info("booking updated", "booking_id", b.ID, "start", b.Start, "end", b.End, "status", b.Status, "acted_by", actedBy.ID)
	s.publish(ctx, EventUpdated, b, actedBy)
	return b, nil
}

func (s *service) updateDetails(ctx context.Context, id string, req UpdateRequest, actedBy auth.Actor) (*Booking, error) {
	if !actedBy.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	timeChange := req.Start != nil || req.End != nil

	// DJ ids never change, so the DJ can be checked before the schedule lock.
	if timeChange {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, storeError(err)
		}
		if _, err := s.validator.resolveDJ(ctx, current.DJID); err != nil {
			return nil, storeError(err)
		}
	}

	var updated *Booking
	err := s.repo.RunLocked(ctx, func(repo Repository) error {
		b, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return ErrTitleRequired
			}
			b.Title = title
		}
		if req.Description != nil {
			b.Description = strings.TrimSpace(*req.Description)
		}

		newStatus := b.Status
		if req.Status != nil {
			newStatus = *req.Status
		}

		start, end := b.Start, b.End
		if timeChange {
			startStr := b.Start.Format(time.RFC3339Nano)
			endStr := b.End.Format(time.RFC3339Nano)
			if req.Start != nil {
				startStr = *req.Start
			}
			if req.End != nil {
				endStr = *req.End
			}
			if start, end, err = ParseRange(startStr, endStr); err != nil {
				return err
			}
		}

		// Rejected bookings hold no air time; only active results are checked.
		if newStatus.IsActive() && (timeChange || !b.Status.IsActive()) {
			if err := s.validator.using(repo).checkConflicts(ctx, b.DJID, start, end, b.ID); err != nil {
				return err
			}
		}

		// The DJ snapshot is kept as it was when the booking was made.
		b.Start, b.End = start, end
		b.Status = newStatus
		s.stamp(b, actedBy)
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string, actedBy auth.Actor) (*Booking, error) {
	if !actedBy.IsPrivileged() {
		observe("delete", ErrPermissionDenied)
		return nil, ErrPermissionDenied
	}

	b, err := s.repo.Delete(ctx, id)
	if err != nil {
		err = storeError(err)
		observe("delete", err)
		return nil, err
	}
	observe("delete", nil)

	slog.Info("booking deleted", "booking_id", b.ID, "dj_id", b.DJID, "acted_by", actedBy.ID)
	s.publish(ctx, EventDeleted, b, actedBy)
	return b, nil
}
