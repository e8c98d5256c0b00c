// Package db persists track history to PostgreSQL. Recording is
// optional; the display runs entirely from memory and the recorder only
// observes the same merged tracks.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/unklstewy/airscope/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		config: cfg,
	}, nil
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// CleanupOldData removes stale tracks and old position history.
// Should be called periodically to prevent unbounded growth.
func (db *DB) CleanupOldData(ctx context.Context, trackMaxAge, positionMaxAge time.Duration) error {
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx,
		`UPDATE tracks SET is_active = FALSE WHERE last_seen < $1`,
		now.Add(-trackMaxAge),
	)
	if err != nil {
		return fmt.Errorf("failed to mark stale tracks: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`DELETE FROM track_positions WHERE observed_at < $1`,
		now.Add(-positionMaxAge),
	)
	if err != nil {
		return fmt.Errorf("failed to delete old positions: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`DELETE FROM tracks WHERE last_seen < $1 AND is_active = FALSE`,
		now.Add(-trackMaxAge-time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to delete old tracks: %w", err)
	}
	return nil
}

// Stats summarizes database contents.
type Stats struct {
	// ActiveTracks is the number of tracks marked active.
	ActiveTracks int

	// TotalTracks is the number of tracks stored.
	TotalTracks int

	// PositionRecords is the number of stored position samples.
	PositionRecords int
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	var st Stats

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracks WHERE is_active = TRUE`,
	).Scan(&st.ActiveTracks)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count active tracks: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracks`,
	).Scan(&st.TotalTracks)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count tracks: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM track_positions`,
	).Scan(&st.PositionRecords)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count positions: %w", err)
	}

	return st, nil
}
