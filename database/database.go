package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/arturonaredo/homebalance-go/hours"
	sqlite "modernc.org/sqlite"
)

//go:embed migrations
var migrationsDir embed.FS

type Database struct {
	logger *slog.Logger
	read   *sql.DB
	write  *sql.DB
	path   string
}

const initSQL = `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;
	PRAGMA temp_store = MEMORY;
	PRAGMA busy_timeout = 5000;
	PRAGMA automatic_index = true;
	PRAGMA foreign_keys = ON;
	PRAGMA analysis_limit = 1000;
	PRAGMA trusted_schema = OFF;
`

// New opens the database with a read pool and a single writer
// connection, then applies any outstanding schema migrations.
// Connection split per https://theitsolutions.io/blog/modernc.org-sqlite-with-go
func New(ctx context.Context, path string) (*Database, error) {
	sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
		_, err := conn.ExecContext(ctx, initSQL, nil)
		return err
	})

	read, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error when opening database (read): %w", err)
	}
	read.SetMaxOpenConns(10) // readers can be concurrent
	read.SetConnMaxIdleTime(time.Minute)

	write, err := sql.Open("sqlite", path)
	if err != nil {
		read.Close()
		return nil, fmt.Errorf("error when opening database (write): %w", err)
	}
	write.SetMaxOpenConns(1) // only a single writer ever, no concurrency
	write.SetConnMaxIdleTime(time.Minute)

	d := &Database{
		logger: slog.Default().With(slog.String("module", "database")),
		read:   read,
		write:  write,
		path:   path,
	}

	err = d.migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return d, nil
}

func (d *Database) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

func (d *Database) Close() {
	d.read.Close()
	d.write.Close()
}

// migrate brings the schema up to the latest embedded migration.
// File names start with the version number, e.g. "3_alerts.sql",
// and PRAGMA user_version tracks the last one applied.
func (d *Database) migrate(ctx context.Context) error {
	var currVer int
	err := d.read.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currVer)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	pending, err := pendingMigrations(currVer)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	// An existing database gets a backup before the schema changes.
	if currVer > 0 {
		if err := d.Backup(ctx); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
	}

	for _, m := range pending {
		if err := d.applyMigration(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

type migration struct {
	version int
	name    string
}

func pendingMigrations(currVer int) ([]migration, error) {
	files, err := migrationsDir.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var pending []migration
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		prefix, _, found := strings.Cut(name, "_")
		if !found {
			prefix, _, found = strings.Cut(name, "-")
		}
		if !found {
			return nil, fmt.Errorf("migration %s has no version prefix", name)
		}
		ver, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s has no numeric version: %w", name, err)
		}
		if ver > currVer {
			pending = append(pending, migration{version: ver, name: name})
		}
	}

	slices.SortFunc(pending, func(a, b migration) int { return a.version - b.version })

	return pending, nil
}

func (d *Database) applyMigration(ctx context.Context, m migration) error {
	d.logger.Debug(fmt.Sprintf("applying migration %d (%s)", m.version, m.name))

	data, err := migrationsDir.ReadFile(path.Join("migrations", m.name))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}

	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration %d: %w", m.version, err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", m.version)); err != nil {
		return fmt.Errorf("bump user_version to %d: %w", m.version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.version, err)
	}

	return nil
}

func (d *Database) purgeTable(ctx context.Context, table string, retentionDays int) error {
	d.logger.Debug(fmt.Sprintf("purging table %s", table))
	duration := 24 * time.Hour * time.Duration(retentionDays)
	before := hours.FromTime(time.Now().Add(-duration))
	res, err := d.write.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s
		WHERE (date = ? AND hour < ?) OR date < ?`, table),
		before.Date, before.Hour, before.Date)
	if err != nil {
		return fmt.Errorf("error when purging %s: %w", table, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		d.logger.Warn("can't get rows affected by purge", slog.String("table", table), slog.Any("error", err))
	} else {
		d.logger.Debug(fmt.Sprintf("purged %d rows from %s", rows, table))
	}

	return nil
}
