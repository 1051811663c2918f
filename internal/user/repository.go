package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Directory resolves users by id. Implementations never mutate users.
type Directory interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
}

type pgxDirectory struct {
	pool *pgxpool.Pool
}

// NewPgxDirectory creates a Directory backed by the users table.
func NewPgxDirectory(pool *pgxpool.Pool) Directory {
	return &pgxDirectory{pool: pool}
}

func (r *pgxDirectory) GetProfile(ctx context.Context, id string) (*Profile, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("u.id", "u.display_name", "u.avatar_url", "u.role").
		From("public.users u").
		Where(squirrel.Eq{"u.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get profile query failed: %w", err)
	}

	var p Profile
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.DisplayName, &p.AvatarURL, &p.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetProfile query failed: %w", err)
	}
	return &p, nil
}
