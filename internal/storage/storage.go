// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package storage keeps reading history in Postgres. The recorder
// samples vessel state off the event bus into the readings table;
// the Postgres reading source and the chart renderer read it back.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

type Config struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

const (
	createReadingsSQL = `CREATE TABLE IF NOT EXISTS readings (
        id BIGSERIAL PRIMARY KEY,
        vessel TEXT NOT NULL,
        kind TEXT NOT NULL,
        value DOUBLE PRECISION NOT NULL,
        observed_at TIMESTAMPTZ NOT NULL
    );`

	createReadingsIndexSQL = `CREATE INDEX IF NOT EXISTS readings_vessel_kind_observed_idx
    ON readings (vessel, kind, observed_at DESC);`

	insertReadingSQL = `INSERT INTO readings (vessel, kind, value, observed_at)
    VALUES ($1, $2, $3, $4);`

	latestReadingSQL = `SELECT vessel, kind, value, observed_at
    FROM readings
    WHERE vessel = $1
      AND kind = $2
    ORDER BY observed_at DESC
    LIMIT 1;`

	readingsBetweenSQL = `SELECT vessel, kind, value, observed_at
    FROM readings
    WHERE vessel = $1
      AND kind = $2
      AND observed_at >= $3
      AND observed_at < $4
    ORDER BY observed_at;`

	vesselsSQL = `SELECT DISTINCT vessel FROM readings ORDER BY vessel;`
)

// ReadingRow is one stored observation.
type ReadingRow struct {
	Vessel     string    `json:"vessel"`
	Kind       string    `json:"kind"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewPool configures a Postgres connection pool from runtime settings.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// Store reads and writes the readings table through a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the readings table and its index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createReadingsSQL); err != nil {
		return fmt.Errorf("create readings table: %w", err)
	}
	if _, err := pool.Exec(ctx, createReadingsIndexSQL); err != nil {
		return fmt.Errorf("create readings index: %w", err)
	}
	return nil
}

// InsertReading appends one observation.
func (s *Store) InsertReading(ctx context.Context, row ReadingRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, insertReadingSQL,
		row.Vessel, row.Kind, row.Value, row.ObservedAt); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// LatestReading returns the most recent observation for a vessel and
// kind. Scan errors include pgx.ErrNoRows when the table has none.
func (s *Store) LatestReading(ctx context.Context, vessel, kind string) (ReadingRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return ReadingRow{}, err
	}
	var row ReadingRow
	if err := pool.QueryRow(ctx, latestReadingSQL, vessel, kind).Scan(
		&row.Vessel, &row.Kind, &row.Value, &row.ObservedAt); err != nil {
		return ReadingRow{}, fmt.Errorf("latest %s reading for %s: %w", kind, vessel, err)
	}
	return row, nil
}

// ReadingsBetween lists observations within [from, to) in time order.
func (s *Store) ReadingsBetween(ctx context.Context, vessel, kind string, from, to time.Time) ([]ReadingRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, readingsBetweenSQL, vessel, kind, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list readings between: %w", queryErr)
	}
	defer rows.Close()

	out := make([]ReadingRow, 0)
	for rows.Next() {
		var row ReadingRow
		if err := rows.Scan(&row.Vessel, &row.Kind, &row.Value, &row.ObservedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Vessels lists every vessel that has at least one stored reading.
func (s *Store) Vessels(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, vesselsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list vessels: %w", queryErr)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
