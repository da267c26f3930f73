// Package store persists roster entries in PostgreSQL. It implements the
// reconcile.Store capability; the engine never touches the pool directly.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdeck/roster-sync/internal/roster"
)

//go:embed schema.sql
var schemaSQL string

// Config configures the roster store.
type Config struct {
	DSN string `yaml:"dsn"`
}

const selectColumns = `
	id, date, dc, check_in, check_out, activity, flight_number,
	from_station, std_local, std_utc, to_station, sta_local, sta_utc,
	block_hours, aircraft_reg, crew,
	elapsed_time, night_time, flagged,
	owner_id, admin_id, source_user_name`

// RosterStore implements reconcile.Store on a pgx connection pool.
type RosterStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// New connects to PostgreSQL and applies the schema.
func New(ctx context.Context, cfg Config) (*RosterStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &RosterStore{
		pool: pool,
		log:  slog.With("component", "store"),
	}
	if err := s.initSchema(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s.log.Info("connected to roster store")
	return s, nil
}

func (s *RosterStore) initSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// LookupByKey returns all persisted entries matching the composite key,
// regardless of owner.
func (s *RosterStore) LookupByKey(ctx context.Context, key roster.CompositeKey) ([]roster.Persisted, error) {
	query := `
		SELECT` + selectColumns + `
		FROM roster_entries
		WHERE date = $1 AND dc = $2 AND flight_number = $3
		  AND from_station = $4 AND to_station = $5
		  AND aircraft_reg = $6 AND crew = $7
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query,
		key.Date, key.DC, key.FlightNumber, key.From, key.To, key.AircraftReg, key.Crew)
	if err != nil {
		return nil, fmt.Errorf("lookup by key: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// LookupByDate returns one owner's entries for a scraped date.
func (s *RosterStore) LookupByDate(ctx context.Context, date, ownerID string) ([]roster.Persisted, error) {
	query := `
		SELECT` + selectColumns + `
		FROM roster_entries
		WHERE date = $1 AND owner_id = $2
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, date, ownerID)
	if err != nil {
		return nil, fmt.Errorf("lookup by date: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// Insert creates an entry and returns its store-assigned id.
func (s *RosterStore) Insert(ctx context.Context, rec roster.Enriched) (string, error) {
	query := `
		INSERT INTO roster_entries (
			date, dc, check_in, check_out, activity, flight_number,
			from_station, std_local, std_utc, to_station, sta_local, sta_utc,
			block_hours, aircraft_reg, crew,
			elapsed_time, night_time, flagged,
			owner_id, admin_id, source_user_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query, args(rec)...).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert roster entry: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Update overwrites an entry in place. Records always carry every
// canonical field (absent source columns are empty strings), so a
// full-row update matches the original merge semantics without ever
// nulling a column.
func (s *RosterStore) Update(ctx context.Context, id string, rec roster.Enriched) error {
	numID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid store id %q: %w", id, err)
	}

	query := `
		UPDATE roster_entries SET
			date = $1, dc = $2, check_in = $3, check_out = $4,
			activity = $5, flight_number = $6, from_station = $7,
			std_local = $8, std_utc = $9, to_station = $10,
			sta_local = $11, sta_utc = $12, block_hours = $13,
			aircraft_reg = $14, crew = $15,
			elapsed_time = $16, night_time = $17, flagged = $18,
			owner_id = $19, admin_id = $20, source_user_name = $21,
			updated_at = NOW()
		WHERE id = $22
	`
	tag, err := s.pool.Exec(ctx, query, append(args(rec), numID)...)
	if err != nil {
		return fmt.Errorf("update roster entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update roster entry %s: no such row", id)
	}
	return nil
}

// Delete removes an entry.
func (s *RosterStore) Delete(ctx context.Context, id string) error {
	numID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid store id %q: %w", id, err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM roster_entries WHERE id = $1`, numID); err != nil {
		return fmt.Errorf("delete roster entry %s: %w", id, err)
	}
	return nil
}

// Close releases database connections.
func (s *RosterStore) Close() error {
	s.pool.Close()
	return nil
}

func args(rec roster.Enriched) []any {
	return []any{
		rec.Date, rec.DC, rec.CheckIn, rec.CheckOut, rec.Activity, rec.FlightNumber,
		rec.From, rec.STDLocal, rec.STDUTC, rec.To, rec.STALocal, rec.STAUTC,
		rec.BlockHours, rec.AircraftReg, rec.Crew,
		rec.ElapsedTime, rec.NightTime, rec.Flagged,
		rec.OwnerID, rec.AdminID, rec.SourceUserName,
	}
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAll(rows pgxRows) ([]roster.Persisted, error) {
	var out []roster.Persisted
	for rows.Next() {
		var (
			id  int64
			rec roster.Enriched
		)
		err := rows.Scan(
			&id, &rec.Date, &rec.DC, &rec.CheckIn, &rec.CheckOut,
			&rec.Activity, &rec.FlightNumber, &rec.From,
			&rec.STDLocal, &rec.STDUTC, &rec.To, &rec.STALocal, &rec.STAUTC,
			&rec.BlockHours, &rec.AircraftReg, &rec.Crew,
			&rec.ElapsedTime, &rec.NightTime, &rec.Flagged,
			&rec.OwnerID, &rec.AdminID, &rec.SourceUserName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, roster.Persisted{ID: strconv.FormatInt(id, 10), Enriched: rec})
	}
	return out, rows.Err()
}
