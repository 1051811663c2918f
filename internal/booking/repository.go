package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// scheduleLockKey identifies the advisory lock that serializes writers of the
// station schedule. There is a single on-air stream, so one key covers it.
const scheduleLockKey int64 = 0x5354_4154_494f_4e

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, booking *Booking) error
	// Delete removes the booking and returns the removed record.
	Delete(ctx context.Context, id string) (*Booking, error)

	// HasOverlap reports whether any active booking intersects [start, end).
	// excludeBookingID is used during updates to ignore the booking itself.
	HasOverlap(ctx context.Context, start, end time.Time, excludeBookingID string) (bool, error)
	// HasAdjacent reports whether an active booking of the DJ ends or starts
	// within buffer of [start, end).
	HasAdjacent(ctx context.Context, djID string, start, end time.Time, buffer time.Duration, excludeBookingID string) (bool, error)

	// RunLocked runs fn while holding the schedule lock. Writes made through
	// the repository passed to fn commit together, or not at all.
	RunLocked(ctx context.Context, fn func(repo Repository) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, db: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"id", "title", "description", "dj_id", "dj_name", "dj_avatar",
	"start_time", "end_time", "status",
	"created_by_id", "created_by_name", "acted_by_id", "acted_by_name",
	"created_at", "updated_at",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.Title, &b.Description, &b.DJID, &b.DJName, &b.DJAvatar,
		&b.Start, &b.End, &b.Status,
		&b.CreatedByID, &b.CreatedByName, &b.ActedByID, &b.ActedByName,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// mapWriteError translates constraint violations raised by the database.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrSlotConflict
		case pgerrcode.CheckViolation:
			if pgErr.ConstraintName == "bookings_range_valid" {
				return ErrInvalidRange
			}
		}
	}
	return fmt.Errorf("%s booking failed: %w", op, err)
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(bookingColumns...).
		Values(
			b.ID, b.Title, b.Description, b.DJID, b.DJName, b.DJAvatar,
			b.Start, b.End, b.Status,
			b.CreatedByID, b.CreatedByName, b.ActedByID, b.ActedByName,
			b.CreatedAt, b.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return mapWriteError("create", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

// buildListQuery applies filter to the booking select. Statuses must already be resolved.
func buildListQuery(filter Filter) squirrel.SelectBuilder {
	columns := make([]string, 0, len(bookingColumns)+1)
	columns = append(columns, bookingColumns...)
	columns = append(columns, "count(*) OVER() AS total_count")

	query := psql.Select(columns...).
		From("public.bookings")

	if len(filter.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}
	if filter.DJID != "" {
		query = query.Where(squirrel.Eq{"dj_id": filter.DJID})
	}
	// Intersection with [filter.Start, filter.End]
	if filter.Start != nil {
		query = query.Where(squirrel.GtOrEq{"end_time": *filter.Start})
	}
	if filter.End != nil {
		query = query.Where(squirrel.LtOrEq{"start_time": *filter.End})
	}

	query = query.OrderBy("start_time ASC", "id ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}
	return query
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	sql, args, err := buildListQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("title", b.Title).
		Set("description", b.Description).
		Set("start_time", b.Start).
		Set("end_time", b.End).
		Set("status", b.Status).
		Set("acted_by_id", b.ActedByID).
		Set("acted_by_name", b.ActedByName).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError("update", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) (*Booking, error) {
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(bookingColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete booking query failed: %w", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete booking failed: %w", err)
	}
	return b, nil
}

// buildOverlapQuery selects active bookings intersecting [start, end):
// existing.start < end AND existing.end > start.
func buildOverlapQuery(start, end time.Time, excludeBookingID string) squirrel.SelectBuilder {
	query := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"status": statusStrings(ActiveStatuses)}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start})

	if excludeBookingID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeBookingID})
	}
	return query
}

// buildAdjacencyQuery selects active bookings of djID whose end lies within
// buffer of start, or whose start lies within buffer of end.
func buildAdjacencyQuery(djID string, start, end time.Time, buffer time.Duration, excludeBookingID string) squirrel.SelectBuilder {
	query := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"dj_id": djID}).
		Where(squirrel.Eq{"status": statusStrings(ActiveStatuses)}).
		Where(squirrel.Or{
			squirrel.And{
				squirrel.Gt{"end_time": start.Add(-buffer)},
				squirrel.Lt{"end_time": start.Add(buffer)},
			},
			squirrel.And{
				squirrel.Gt{"start_time": end.Add(-buffer)},
				squirrel.Lt{"start_time": end.Add(buffer)},
			},
		})

	if excludeBookingID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeBookingID})
	}
	return query
}

func (r *pgxRepository) exists(ctx context.Context, op string, sub squirrel.SelectBuilder) (bool, error) {
	sql, args, err := sub.ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s query failed: %w", op, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s failed: %w", op, err)
	}
	return exists, nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, start, end time.Time, excludeBookingID string) (bool, error) {
	return r.exists(ctx, "check overlap", buildOverlapQuery(start, end, excludeBookingID))
}

func (r *pgxRepository) HasAdjacent(ctx context.Context, djID string, start, end time.Time, buffer time.Duration, excludeBookingID string) (bool, error) {
	return r.exists(ctx, "check adjacency", buildAdjacencyQuery(djID, start, end, buffer, excludeBookingID))
}

func (r *pgxRepository) RunLocked(ctx context.Context, fn func(repo Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schedule transaction failed: %w", err)
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	// Released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", scheduleLockKey); err != nil {
		return fmt.Errorf("acquire schedule lock failed: %w", err)
	}

	if err := fn(&pgxRepository{pool: r.pool, db: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError("commit", err)
	}
	return nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

