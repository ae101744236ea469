package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type LogEntryRow struct {
	Timestamp time.Time
	Level     int
	Message   string
	Attrs     string
}

func (d *Database) SaveLogEntry(ctx context.Context, r LogEntryRow) error {
	_, err := d.write.ExecContext(ctx,
		`INSERT INTO log (timestamp, level, message, attrs) VALUES (?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339), r.Level, r.Message, r.Attrs)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// GetLogEntries returns a page of log entries at or above minLvl,
// newest first. Page numbering starts at 1.
func (d *Database) GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]LogEntryRow, error) {
	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT timestamp, level, message, attrs
		FROM log
		WHERE level >= ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`,
		minLvl, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntryRow
	for rows.Next() {
		var r LogEntryRow
		var ts string
		if err := rows.Scan(&ts, &r.Level, &r.Message, &r.Attrs); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parse log timestamp %q: %w", ts, err)
		}
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log rows: %w", err)
	}

	return entries, nil
}

// PurgeLog trims the log table down to the newest maxEntries rows.
func (d *Database) PurgeLog(ctx context.Context, maxEntries int) error {
	d.logger.Debug("purging log")
	_, err := d.write.ExecContext(ctx, `
		DELETE FROM log
		WHERE id <= (SELECT id FROM log ORDER BY id DESC LIMIT 1 OFFSET ?)`,
		maxEntries)
	if err != nil {
		return fmt.Errorf("purge log: %w", err)
	}
	return nil
}
