package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gracechapel/scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := createTables(context.Background(), pool); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if err := seedResources(context.Background(), pool, 6); err != nil {
		log.Fatalf("seed resources: %v", err)
	}
	if err := seedChurchEvents(context.Background(), pool, 120); err != nil {
		log.Fatalf("seed church events: %v", err)
	}

	log.Println("seed complete")
}

func createTables(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS resources (
			id           text PRIMARY KEY,
			name         text NOT NULL,
			calendar_id  text NOT NULL,
			start_hour   int  NOT NULL,
			end_hour     int  NOT NULL,
			slot_minutes int  NOT NULL,
			timezone     text,
			created_at   timestamptz NOT NULL DEFAULT now(),
			updated_at   timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS church_events (
			correlation_id text PRIMARY KEY,
			calendar_id    text NOT NULL,
			title          text NOT NULL,
			starts_at      timestamptz NOT NULL,
			ends_at        timestamptz,
			location       text,
			description    text,
			created_at     timestamptz NOT NULL DEFAULT now(),
			updated_at     timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_church_events_starts_at ON church_events (starts_at);
	`)
	return err
}

func seedResources(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d resources", count)

	timezones := []string{
		"America/New_York",
		"America/Chicago",
		"America/Denver",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("counselor-%c", 'a'+i)
		name := "Pastor " + gofakeit.LastName()
		calendarID := fmt.Sprintf("%s@group.calendar.google.com", uuid.NewString())
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO resources (id, name, calendar_id, start_hour, end_hour, slot_minutes, timezone, created_at, updated_at)
			VALUES ($1, $2, $3, 9, 17, 60, $4, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, id, name, calendarID, tz)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("resources seeded")
	return nil
}

func seedChurchEvents(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d church events", count)

	titles := []string{
		"Sunday Service",
		"Evening Prayer",
		"Youth Group",
		"Bible Study",
		"Choir Practice",
		"Community Dinner",
		"Men's Breakfast",
		"Women's Fellowship",
	}
	locations := []string{"Main Hall", "Fellowship Room", "Chapel", "Youth Center"}

	var calendarIDs []string
	rows, err := pool.Query(ctx, `SELECT calendar_id FROM resources`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		calendarIDs = append(calendarIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(calendarIDs) == 0 {
		return fmt.Errorf("no resources to attach events to")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		correlationID := "cms-" + uuid.NewString()
		calendarID := calendarIDs[gofakeit.Number(0, len(calendarIDs)-1)]
		title := titles[gofakeit.Number(0, len(titles)-1)]
		location := locations[gofakeit.Number(0, len(locations)-1)]

		start := time.Now().AddDate(0, 0, gofakeit.Number(1, 28)).Truncate(time.Hour)
		var end *time.Time
		if gofakeit.Bool() {
			e := start.Add(time.Duration(gofakeit.Number(1, 3)) * time.Hour)
			end = &e
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO church_events (correlation_id, calendar_id, title, starts_at, ends_at, location, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		`, correlationID, calendarID, title, start, end, location, gofakeit.Sentence(8))
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("church events seeded")
	return nil
}
