package task

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
)

func newOverrideFixture(t *testing.T) (*engine.Engine, *database.Database, *slog.Logger) {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(logger, &config.AppConfig{}, db, nil, nil, nil, nil, nil)

	return eng, db, logger
}

func TestDueActionClearsOverride(t *testing.T) {
	eng, db, logger := newOverrideFixture(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Second)
	require.NoError(t, eng.SetOverride(ctx, 50, &past))

	NewPendingActionsTask(logger, db, eng)()

	row, err := db.GetManualOverride(ctx)
	require.NoError(t, err)
	assert.Nil(t, row)

	actions, err := db.GetPendingActions(ctx)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestStaleActionLeavesReplacedOverrideAlone(t *testing.T) {
	eng, db, logger := newOverrideFixture(t)
	ctx := context.Background()

	// A short-lived override replaced by an indefinite one. When the
	// first one's expiry comes due, the second must keep winning.
	past := time.Now().Add(-time.Second)
	require.NoError(t, eng.SetOverride(ctx, 50, &past))
	require.NoError(t, eng.SetOverride(ctx, 80, nil))

	NewPendingActionsTask(logger, db, eng)()

	row, err := db.GetManualOverride(ctx)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.InDelta(t, 80.0, row.TargetSoc, 0.001)
	assert.Nil(t, row.ExpiresAt)
}

func TestFutureActionIsLeftPending(t *testing.T) {
	eng, db, logger := newOverrideFixture(t)
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	require.NoError(t, eng.SetOverride(ctx, 60, &future))

	NewPendingActionsTask(logger, db, eng)()

	row, err := db.GetManualOverride(ctx)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.InDelta(t, 60.0, row.TargetSoc, 0.001)

	actions, err := db.GetPendingActions(ctx)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}
