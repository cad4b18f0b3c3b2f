package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func (db *DB) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(db.dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	var (
		driver database.Driver
		closer func() error
	)
	switch db.dialect {
	case DialectPostgres:
		conn, err := db.conn.Conn(context.Background())
		if err != nil {
			return fmt.Errorf("acquire migration connection: %w", err)
		}
		pg, err := postgres.WithConnection(context.Background(), conn, &postgres.Config{})
		if err != nil {
			conn.Close()
			return fmt.Errorf("create postgres driver: %w", err)
		}
		driver, closer = pg, pg.Close
	default:
		// The sqlite driver closes the *sql.DB it wraps, so it is never closed
		// here; the source is released on its own.
		driver, err = sqlite.WithInstance(db.conn, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite driver: %w", err)
		}
		closer = src.Close
	}
	defer closer()

	m, err := migrate.NewWithInstance("iofs", src, string(db.dialect), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
