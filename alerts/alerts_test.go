package alerts

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/types/maybe"
)

type fakeNotifier struct {
	sent []Alert
}

func (f *fakeNotifier) Send(_ context.Context, a Alert) bool {
	f.sent = append(f.sent, a)
	return true
}

func newTestEvaluator(t *testing.T) (*Evaluator, *fakeNotifier, *database.Database) {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEvaluator(logger, db, notifier, config.AppConfigAlerts{}), notifier, db
}

func socReading(soc float64) Reading {
	return Reading{Soc: maybe.Some(soc)}
}

func TestLowSocAlertIsEdgeTriggered(t *testing.T) {
	ev, notifier, db := newTestEvaluator(t)
	ctx := context.Background()

	// Default low-SOC threshold is 15%.
	created := ev.Evaluate(ctx, socReading(20))
	assert.Empty(t, created)
	assert.Empty(t, ev.Active())

	created = ev.Evaluate(ctx, socReading(14))
	require.Len(t, created, 1)
	assert.Equal(t, TypeLowSoc, created[0].Type)
	assert.Equal(t, SeverityWarning, created[0].Severity)
	assert.Len(t, ev.Active(), 1)

	// Condition persists: no second alert, no second notification.
	created = ev.Evaluate(ctx, socReading(14))
	assert.Empty(t, created)
	assert.Len(t, notifier.sent, 1)

	// Recovery retires the alert silently.
	created = ev.Evaluate(ctx, socReading(16))
	assert.Empty(t, created)
	assert.Empty(t, ev.Active())
	assert.Len(t, notifier.sent, 1)

	// History keeps the single creation.
	history, err := db.GetAlertHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(TypeLowSoc), history[0].Type)
}

func TestHighPriceAlert(t *testing.T) {
	ev, notifier, _ := newTestEvaluator(t)
	ctx := context.Background()

	created := ev.Evaluate(ctx, Reading{Price: maybe.Some(0.45)})
	require.Len(t, created, 1)
	assert.Equal(t, TypeHighPrice, created[0].Type)
	assert.Equal(t, SeverityInfo, created[0].Severity)
	assert.Contains(t, created[0].Message, "0.450")
	assert.Len(t, notifier.sent, 1)

	created = ev.Evaluate(ctx, Reading{Price: maybe.Some(0.20)})
	assert.Empty(t, created)
	assert.Empty(t, ev.Active())
}

func TestOverloadAlert(t *testing.T) {
	ev, _, _ := newTestEvaluator(t)
	ctx := context.Background()

	created := ev.Evaluate(ctx, Reading{
		TotalLoadWatts:    maybe.Some(4200.0),
		MaxAvailableWatts: 4140,
	})
	require.Len(t, created, 1)
	assert.Equal(t, TypeOverload, created[0].Type)
	assert.Equal(t, SeverityDanger, created[0].Severity)
}

func TestUnknownReadingDoesNotRetireActiveAlert(t *testing.T) {
	ev, _, _ := newTestEvaluator(t)
	ctx := context.Background()

	ev.Evaluate(ctx, socReading(10))
	require.Len(t, ev.Active(), 1)

	// A failed sensor read must not clear a standing alarm.
	ev.Evaluate(ctx, Reading{Soc: maybe.None[float64]()})
	assert.Len(t, ev.Active(), 1)
}

func TestIndependentAlertTypes(t *testing.T) {
	ev, notifier, _ := newTestEvaluator(t)
	ctx := context.Background()

	created := ev.Evaluate(ctx, Reading{
		Soc:   maybe.Some(10.0),
		Price: maybe.Some(0.50),
	})
	assert.Len(t, created, 2)
	assert.Len(t, ev.Active(), 2)
	assert.Len(t, notifier.sent, 2)

	// SOC recovers, price alert stays.
	ev.Evaluate(ctx, Reading{
		Soc:   maybe.Some(50.0),
		Price: maybe.Some(0.50),
	})
	active := ev.Active()
	require.Len(t, active, 1)
	assert.Equal(t, TypeHighPrice, active[0].Type)
}
