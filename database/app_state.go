package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	stateKeyOverride  = "manual_override"
	stateKeyShedLoads = "shed_loads"
	stateKeyDndUntil  = "dnd_until"
)

// ManualOverrideRow is the persisted manual target-SOC override.
// A nil ExpiresAt means the override holds until cleared by hand.
type ManualOverrideRow struct {
	TargetSoc float64    `json:"targetSoc"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (d *Database) setAppState(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling app state %q: %w", key, err)
	}
	_, err = d.write.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("saving app state %q: %w", key, err)
	}
	return nil
}

func (d *Database) getAppState(ctx context.Context, key string, dest any) (bool, error) {
	row := d.read.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching app state %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("unmarshalling app state %q: %w", key, err)
	}
	return true, nil
}

func (d *Database) deleteAppState(ctx context.Context, key string) error {
	_, err := d.write.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting app state %q: %w", key, err)
	}
	return nil
}

func (d *Database) SaveManualOverride(ctx context.Context, row ManualOverrideRow) error {
	d.logger.Debug("saving manual override",
		"targetSoc", row.TargetSoc,
		"expiresAt", row.ExpiresAt)
	return d.setAppState(ctx, stateKeyOverride, row)
}

func (d *Database) GetManualOverride(ctx context.Context) (*ManualOverrideRow, error) {
	var row ManualOverrideRow
	found, err := d.getAppState(ctx, stateKeyOverride, &row)
	if err != nil || !found {
		return nil, err
	}
	return &row, nil
}

func (d *Database) ClearManualOverride(ctx context.Context) error {
	d.logger.Debug("clearing manual override")
	return d.deleteAppState(ctx, stateKeyOverride)
}

func (d *Database) SaveShedLoads(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return d.setAppState(ctx, stateKeyShedLoads, ids)
}

func (d *Database) GetShedLoads(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := d.getAppState(ctx, stateKeyShedLoads, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *Database) SaveDndUntil(ctx context.Context, until time.Time) error {
	return d.setAppState(ctx, stateKeyDndUntil, until)
}

func (d *Database) GetDndUntil(ctx context.Context) (time.Time, error) {
	var until time.Time
	if _, err := d.getAppState(ctx, stateKeyDndUntil, &until); err != nil {
		return time.Time{}, err
	}
	return until, nil
}
