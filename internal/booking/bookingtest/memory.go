// Package bookingtest provides in-memory collaborators for booking tests.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wavefm/station-backend/internal/booking"
	"github.com/wavefm/station-backend/internal/user"
)

// MemoryRepository is a booking.Repository kept in a map. It mirrors the
// PostgreSQL store, including the exclusion constraint on active bookings.
type MemoryRepository struct {
	schedule sync.Mutex // held by RunLocked
	locked   atomic.Bool

	mu       sync.Mutex
	bookings map[string]*booking.Booking

	// Err, when set, is returned by every call.
	Err error
}

var _ booking.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: make(map[string]*booking.Booking)}
}

func clone(b *booking.Booking) *booking.Booking {
	cp := *b
	if b.ActedByID != nil {
		id := *b.ActedByID
		cp.ActedByID = &id
	}
	if b.ActedByName != nil {
		name := *b.ActedByName
		cp.ActedByName = &name
	}
	return &cp
}

// Put stores b as is, bypassing every check. Used to seed fixtures.
func (r *MemoryRepository) Put(b *booking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = clone(b)
}

// Len returns the number of stored bookings.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *MemoryRepository) violatesExclusion(b *booking.Booking) bool {
	if !b.Status.IsActive() {
		return false
	}
	for _, other := range r.bookings {
		if other.ID == b.ID || !other.Status.IsActive() {
			continue
		}
		if booking.Overlaps(other.Start, other.End, b.Start, b.End) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if r.violatesExclusion(b) {
		return booking.ErrSlotConflict
	}
	r.bookings[b.ID] = clone(b)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return clone(b), nil
}

func (r *MemoryRepository) List(_ context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	wanted := make(map[booking.Status]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		wanted[s] = true
	}

	var out []*booking.Booking
	for _, b := range r.bookings {
		if len(wanted) > 0 && !wanted[b.Status] {
			continue
		}
		if filter.DJID != "" && b.DJID != filter.DJID {
			continue
		}
		if filter.Start != nil && b.End.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && b.Start.After(*filter.End) {
			continue
		}
		out = append(out, clone(b))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})

	total := len(out)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		from := (page - 1) * filter.PageSize
		if from > total {
			from = total
		}
		to := from + filter.PageSize
		if to > total {
			to = total
		}
		out = out[from:to]
	}
	return out, total, nil
}

func (r *MemoryRepository) Update(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	if r.violatesExclusion(b) {
		return booking.ErrSlotConflict
	}
	r.bookings[b.ID] = clone(b)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	delete(r.bookings, id)
	return b, nil
}

func (r *MemoryRepository) HasOverlap(_ context.Context, start, end time.Time, excludeBookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for _, b := range r.bookings {
		if b.ID == excludeBookingID || !b.Status.IsActive() {
			continue
		}
		if booking.Overlaps(b.Start, b.End, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) HasAdjacent(_ context.Context, djID string, start, end time.Time, buffer time.Duration, excludeBookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for _, b := range r.bookings {
		if b.ID == excludeBookingID || b.DJID != djID || !b.Status.IsActive() {
			continue
		}
		if booking.TooClose(b, start, end, buffer) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) RunLocked(_ context.Context, fn func(repo booking.Repository) error) error {
	r.schedule.Lock()
	defer r.schedule.Unlock()
	r.locked.Store(true)
	defer r.locked.Store(false)
	return fn(r)
}

// Locked reports whether a RunLocked callback is running.
func (r *MemoryRepository) Locked() bool {
	return r.locked.Load()
}

// Directory is a user.Directory backed by a map.
type Directory struct {
	mu       sync.Mutex
	profiles map[string]*user.Profile
}

var _ user.Directory = (*Directory)(nil)

func NewDirectory(profiles ...*user.Profile) *Directory {
	d := &Directory{profiles: make(map[string]*user.Profile)}
	for _, p := range profiles {
		d.profiles[p.ID] = p
	}
	return d
}

func (d *Directory) Add(p *user.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.ID] = p
}

func (d *Directory) GetProfile(_ context.Context, id string) (*user.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.profiles[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Notifier records every event it receives.
type Notifier struct {
	mu     sync.Mutex
	Events []booking.Event
	Err    error
}

func (n *Notifier) Notify(_ context.Context, ev booking.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, ev)
	return n.Err
}

// Types returns the recorded event types in order.
func (n *Notifier) Types() []booking.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]booking.EventType, len(n.Events))
	for i, ev := range n.Events {
		out[i] = ev.Type
	}
	return out
}
