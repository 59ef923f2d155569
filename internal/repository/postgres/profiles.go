package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// ProfileRepository implements port.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewProfileRepository(exec pgExecutor) *ProfileRepository {
	return &ProfileRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns every saved search profile with its city filter loaded.
func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "min_price_base", "max_price_base", "birth_date").
		From("woningzoeker.profiles").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list profiles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		var profile domain.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.UserID,
			&profile.MinPriceBase,
			&profile.MaxPriceBase,
			&profile.BirthDate,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	for i := range profiles {
		cities, err := r.listCities(ctx, profiles[i].ID)
		if err != nil {
			return nil, err
		}
		profiles[i].Cities = cities
	}

	return profiles, nil
}

func (r *ProfileRepository) listCities(ctx context.Context, profileID string) ([]string, error) {
	stmt, args, err := r.builder.
		Select("city").
		From("woningzoeker.profile_cities").
		Where(squirrel.Eq{"profile_id": profileID}).
		OrderBy("city ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list profile cities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query profile cities: %w", err)
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("scan profile city: %w", err)
		}
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile cities: %w", err)
	}

	return cities, nil
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)
