package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"swiftgo/pkg/db"
	"swiftgo/pkg/model"
)

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	ModelStore
	DisabledModelStore
	ElevationStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Models ---

func (s *SQLiteStore) SaveModel(ctx context.Context, m *model.Model) error {
	query := `INSERT INTO model (title, icao_type, airline, engines) VALUES (?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET icao_type = excluded.icao_type, airline = excluded.airline, engines = excluded.engines`
	_, err := s.db.ExecContext(ctx, query, m.Title, m.ICAOType, m.Airline, m.Engines)
	return err
}

func (s *SQLiteStore) GetModel(ctx context.Context, title string) (*model.Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT title, icao_type, airline, engines, created_at FROM model WHERE title = ?`, title)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) ListModels(ctx context.Context) ([]model.Model, error) {
	return s.queryModels(ctx, `SELECT title, icao_type, airline, engines, created_at FROM model ORDER BY title`)
}

// FindModels returns the models of an ICAO type that are not disabled.
func (s *SQLiteStore) FindModels(ctx context.Context, icaoType string) ([]model.Model, error) {
	return s.queryModels(ctx,
		`SELECT m.title, m.icao_type, m.airline, m.engines, m.created_at FROM model m
		 LEFT JOIN disabled_model d ON d.title = m.title
		 WHERE d.title IS NULL AND m.icao_type = ? COLLATE NOCASE
		 ORDER BY m.title`, icaoType)
}

func (s *SQLiteStore) DeleteModel(ctx context.Context, title string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM model WHERE title = ?", title)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner) (model.Model, error) {
	var m model.Model
	var icaoType, airline sql.NullString
	var created sql.NullTime
	if err := row.Scan(&m.Title, &icaoType, &airline, &m.Engines, &created); err != nil {
		return model.Model{}, err
	}
	m.ICAOType = icaoType.String
	m.Airline = airline.String
	if created.Valid {
		m.CreatedAt = created.Time
	}
	return m, nil
}

func (s *SQLiteStore) queryModels(ctx context.Context, query string, args ...any) ([]model.Model, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Disabled models ---

func (s *SQLiteStore) DisableModel(ctx context.Context, title, reason string) error {
	query := `INSERT OR REPLACE INTO disabled_model (title, reason, disabled_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, title, reason, time.Now().UTC())
	return err
}

func (s *SQLiteStore) EnableModel(ctx context.Context, title string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM disabled_model WHERE title = ?", title)
	return err
}

func (s *SQLiteStore) IsModelDisabled(ctx context.Context, title string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM disabled_model WHERE title = ?", title).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) ListDisabledModels(ctx context.Context) ([]model.DisabledModel, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT title, reason, disabled_at FROM disabled_model ORDER BY disabled_at, title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DisabledModel
	for rows.Next() {
		var d model.DisabledModel
		var reason sql.NullString
		if err := rows.Scan(&d.Title, &reason, &d.DisabledAt); err != nil {
			return nil, err
		}
		d.Reason = reason.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Elevation ---

func (s *SQLiteStore) GetElevation(ctx context.Context, cell string) (float64, bool) {
	var ft float64
	err := s.db.QueryRowContext(ctx, "SELECT elevation_ft FROM elevation WHERE cell = ?", cell).Scan(&ft)
	if err != nil {
		return 0, false
	}
	return ft, true
}

func (s *SQLiteStore) SaveElevation(ctx context.Context, cell string, elevationFt float64) error {
	query := `INSERT OR REPLACE INTO elevation (cell, elevation_ft, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	_, err := s.db.ExecContext(ctx, query, cell, elevationFt)
	return err
}

// RecentElevations returns the most recently measured cells, newest first.
func (s *SQLiteStore) RecentElevations(ctx context.Context, limit int) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT cell, elevation_ft FROM elevation ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var cell string
		var ft float64
		if err := rows.Scan(&cell, &ft); err != nil {
			return nil, err
		}
		out[cell] = ft
	}
	return out, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
