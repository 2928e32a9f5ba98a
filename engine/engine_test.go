package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pofcore/config"
	"pofcore/progress"
	"pofcore/store"
)

func testEngine(t *testing.T) (*Engine, *store.DB) {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eng := New(Config{
		FactoryID:   "pof-pacific",
		TopicPrefix: "pof.notify",
		DB:          db,
		Progress:    progress.NewManager(db, nil),
	})
	return eng, db
}

func TestBusSubscribeTypesFilters(t *testing.T) {
	bus := NewEventBus()
	var all, filtered []EventType
	bus.Subscribe(func(evt Event) { all = append(all, evt.Type) })
	bus.SubscribeTypes(func(evt Event) { filtered = append(filtered, evt.Type) }, EventStepStarted)

	bus.Emit(Event{Type: EventStepStarted})
	bus.Emit(Event{Type: EventOrderCreated})

	assert.Equal(t, []EventType{EventStepStarted, EventOrderCreated}, all)
	assert.Equal(t, []EventType{EventStepStarted}, filtered)
}

func TestMachineDownOpensAndResolvesException(t *testing.T) {
	eng, db := testEngine(t)
	station := &store.Station{Code: "S2", Name: "Printing"}
	require.NoError(t, db.CreateStation(station))
	machine := &store.Machine{StationID: station.ID, Code: "PR-01", StandardSpeed: 80, Status: store.MachineIdle}
	require.NoError(t, db.CreateMachine(machine))

	eng.Bus().Emit(Event{Type: EventMachineStatusChanged, Payload: MachineStatusChangedEvent{
		MachineID: machine.ID, OldStatus: store.MachineIdle, NewStatus: store.MachineDown, Reason: "web break",
	}})

	open, err := db.ListExceptions(store.ExcOpen, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, store.ExcMachineDown, open[0].ExcType)
	assert.Equal(t, machine.ID, open[0].MachineID)

	eng.Bus().Emit(Event{Type: EventMachineStatusChanged, Payload: MachineStatusChangedEvent{
		MachineID: machine.ID, OldStatus: store.MachineDown, NewStatus: store.MachineRunning,
	}})

	open, err = db.ListExceptions(store.ExcOpen, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestScheduleOverrideLandsInAudit(t *testing.T) {
	eng, db := testEngine(t)

	eng.Bus().Emit(Event{Type: EventScheduleOverride, Payload: ScheduleOverrideEvent{
		OrderID: 7, Date: "2026-02-11", Actor: "planner", Reason: "customer pull-in",
	}})

	n, err := db.CountAuditSince(progress.ScheduleOverrideAction, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := db.ListAudit("order", 7, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "planner", entries[0].Actor)
}

func TestOrderCompletedStagedInOutbox(t *testing.T) {
	eng, db := testEngine(t)

	eng.Bus().Emit(Event{Type: EventOrderCompleted, Payload: OrderCompletedEvent{
		OrderID: 3, OrderUUID: "u-3", OrderNumber: "SO-079-34",
	}})

	pending, err := db.ListPendingOutbox(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pof.notify.orders.completed", pending[0].Topic)
	assert.Equal(t, "order_completed", pending[0].MsgType)
	assert.Contains(t, string(pending[0].Payload), "SO-079-34")
}
