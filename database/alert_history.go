package database

import (
	"context"
	"fmt"
	"time"
)

type AlertHistoryRow struct {
	Id        int64
	Type      string
	Severity  string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

func (d *Database) SaveAlert(ctx context.Context, r AlertHistoryRow) error {
	d.logger.Debug("saving alert", "type", r.Type, "severity", r.Severity)
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO alert_history (type, severity, message, value, threshold, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Type,
		r.Severity,
		r.Message,
		r.Value,
		r.Threshold,
		r.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving alert: %w", err)
	}
	return nil
}

// GetAlertHistory returns up to limit alerts, most recent first.
func (d *Database) GetAlertHistory(ctx context.Context, limit int) ([]AlertHistoryRow, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT id, type, severity, message, value, threshold, timestamp
		FROM alert_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching alert history: %w", err)
	}
	defer rows.Close()

	var ts string
	var alerts []AlertHistoryRow
	for rows.Next() {
		var r AlertHistoryRow
		err := rows.Scan(&r.Id, &r.Type, &r.Severity, &r.Message, &r.Value, &r.Threshold, &ts)
		if err != nil {
			return nil, err
		}
		r.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing alert timestamp: %w", err)
		}
		alerts = append(alerts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading alert rows: %w", err)
	}

	return alerts, nil
}

func (d *Database) ClearAlertHistory(ctx context.Context) error {
	_, err := d.write.ExecContext(ctx, `DELETE FROM alert_history`)
	if err != nil {
		return fmt.Errorf("clearing alert history: %w", err)
	}
	return nil
}

// PurgeAlertHistory caps the table at maxEntries, dropping the oldest.
func (d *Database) PurgeAlertHistory(ctx context.Context, maxEntries int) error {
	d.logger.Debug("purging alert history")
	_, err := d.write.ExecContext(ctx, `
		DELETE FROM alert_history WHERE id <= (SELECT id FROM alert_history ORDER BY id DESC LIMIT 1 OFFSET ?)`,
		maxEntries)
	if err != nil {
		return fmt.Errorf("purging alert history: %w", err)
	}
	return nil
}
