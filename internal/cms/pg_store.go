package cms

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gracechapel/scheduling/internal/interval"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanResource(row pgx.Row) (*Resource, error) {
	var r Resource
	var timezone *string

	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.CalendarID,
		&r.Hours.StartHour,
		&r.Hours.EndHour,
		&r.Hours.SlotMinutes,
		&timezone,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if timezone != nil {
		r.Hours.Timezone = *timezone
	}
	return &r, nil
}

func scanSyncItem(row pgx.Row) (*SyncItem, error) {
	var item SyncItem
	var startsAt time.Time
	var endsAt *time.Time
	var location, description *string

	err := row.Scan(
		&item.Event.CorrelationID,
		&item.CalendarID,
		&item.Event.Title,
		&startsAt,
		&endsAt,
		&location,
		&description,
	)
	if err != nil {
		return nil, err
	}

	item.Event.When.Start = startsAt
	if endsAt != nil {
		item.Event.When.End = *endsAt
	}
	if location != nil {
		item.Event.Location = *location
	}
	if description != nil {
		item.Event.Description = *description
	}
	return &item, nil
}

// Interface methods

func (s *PgStore) GetResource(ctx context.Context, id string) (*Resource, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, calendar_id, start_hour, end_hour, slot_minutes, timezone, created_at, updated_at
		FROM resources
		WHERE id = $1
	`, id)
	return scanResource(row)
}

func (s *PgStore) ListResources(ctx context.Context) ([]Resource, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, calendar_id, start_hour, end_hour, slot_minutes, timezone, created_at, updated_at
		FROM resources
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) ListEventsNeedingSync(ctx context.Context, window interval.Interval) ([]SyncItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT correlation_id, calendar_id, title, starts_at, ends_at, location, description
		FROM church_events
		WHERE starts_at < $2
		  AND COALESCE(ends_at, starts_at) >= $1
		ORDER BY starts_at
	`, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SyncItem
	for rows.Next() {
		item, err := scanSyncItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

var _ Store = (*PgStore)(nil)
