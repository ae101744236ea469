package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arturonaredo/homebalance-go/hours"
)

// StateHistoryRow is an hourly snapshot of the live system state,
// stored as JSON so the engine schema can evolve without migrations.
type StateHistoryRow struct {
	When hours.DateHour
	Data json.RawMessage
}

func (d *Database) SaveStateHistory(ctx context.Context, row StateHistoryRow) error {
	d.logger.Debug("saving state snapshot", "hour", row.When)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO state_history (date, hour, data)
		VALUES (?, ?, ?)
		ON CONFLICT(date, hour) DO UPDATE SET data = excluded.data`,
		row.When.Date,
		row.When.Hour,
		string(row.Data),
	)
	if err != nil {
		return fmt.Errorf("saving state snapshot: %w", err)
	}

	return nil
}

func (d *Database) GetStateHistoryFrom(ctx context.Context, dh hours.DateHour) ([]StateHistoryRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, data
		FROM state_history
		WHERE (date = ? AND hour >= ?) OR date > ?
		ORDER BY date, hour ASC`,
		dh.Date, dh.Hour, dh.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching state history from %s: %w", dh, err)
	}
	defer rows.Close()

	var res []StateHistoryRow
	for rows.Next() {
		var row StateHistoryRow
		var data string
		if err := rows.Scan(&row.When.Date, &row.When.Hour, &data); err != nil {
			return nil, fmt.Errorf("scanning state history row: %w", err)
		}
		row.Data = json.RawMessage(data)
		res = append(res, row)
	}

	return res, nil
}

func (d *Database) GetStateHistoryForHour(ctx context.Context, dh hours.DateHour) (StateHistoryRow, error) {
	row := d.read.QueryRowContext(ctx, `
		SELECT date, hour, data
		FROM state_history
		WHERE date = ? AND hour = ?`,
		dh.Date, dh.Hour)

	var res StateHistoryRow
	var data string
	err := row.Scan(&res.When.Date, &res.When.Hour, &data)
	if err == sql.ErrNoRows {
		return StateHistoryRow{}, sql.ErrNoRows
	}
	if err != nil {
		return StateHistoryRow{}, fmt.Errorf("fetching state history for %s: %w", dh, err)
	}
	res.Data = json.RawMessage(data)

	return res, nil
}

func (d *Database) PurgeStateHistory(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "state_history", retentionDays)
}
