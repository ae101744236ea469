package database

import (
	"context"
	"fmt"
	"time"
)

// Known pending-action kinds.
const (
	PendingActionClearOverride = "clear_override"
)

// PendingActionRow is a durable one-shot action ("clear override at
// 23:00"). Rows survive a restart and are re-armed at startup.
type PendingActionRow struct {
	Id      int64
	Kind    string
	Payload string
	RunAt   time.Time
}

func (d *Database) SavePendingAction(ctx context.Context, kind, payload string, runAt time.Time) (int64, error) {
	d.logger.Debug("saving pending action", "kind", kind, "runAt", runAt)
	res, err := d.write.ExecContext(ctx, `
		INSERT INTO pending_action (kind, payload, run_at) VALUES (?, ?, ?)`,
		kind, payload, runAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("saving pending action: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting pending action id: %w", err)
	}
	return id, nil
}

func (d *Database) GetPendingActions(ctx context.Context) ([]PendingActionRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT id, kind, payload, run_at
		FROM pending_action
		WHERE done = 0
		ORDER BY run_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetching pending actions: %w", err)
	}
	defer rows.Close()

	var ts string
	var actions []PendingActionRow
	for rows.Next() {
		var r PendingActionRow
		if err := rows.Scan(&r.Id, &r.Kind, &r.Payload, &ts); err != nil {
			return nil, fmt.Errorf("scanning pending action row: %w", err)
		}
		r.RunAt, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing pending action run_at: %w", err)
		}
		actions = append(actions, r)
	}

	return actions, nil
}

func (d *Database) MarkPendingActionDone(ctx context.Context, id int64) error {
	_, err := d.write.ExecContext(ctx, `UPDATE pending_action SET done = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking pending action %d done: %w", id, err)
	}
	return nil
}

func (d *Database) DeletePendingAction(ctx context.Context, id int64) error {
	_, err := d.write.ExecContext(ctx, `DELETE FROM pending_action WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pending action %d: %w", id, err)
	}
	return nil
}

func (d *Database) PurgePendingActions(ctx context.Context) error {
	d.logger.Debug("purging done pending actions")
	_, err := d.write.ExecContext(ctx, `DELETE FROM pending_action WHERE done = 1`)
	if err != nil {
		return fmt.Errorf("purging pending actions: %w", err)
	}
	return nil
}
