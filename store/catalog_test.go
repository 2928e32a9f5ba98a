package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStationWithMachine(t *testing.T, db *DB) (*Station, *Machine) {
	t.Helper()
	station := &Station{Code: "S2", Name: "Printing"}
	require.NoError(t, db.CreateStation(station))
	machine := &Machine{StationID: station.ID, Code: "PR-01", StandardSpeed: 80, Status: MachineIdle}
	require.NoError(t, db.CreateMachine(machine))
	return station, machine
}

func TestSetMachineStatusAppendsLog(t *testing.T) {
	db := testDB(t)
	_, machine := seedStationWithMachine(t, db)

	require.NoError(t, db.SetMachineStatus(machine.ID, MachineRunning, "job started"))
	require.NoError(t, db.SetMachineStatus(machine.ID, MachineDown, "web break"))

	got, err := db.GetMachine(machine.ID)
	require.NoError(t, err)
	assert.Equal(t, MachineDown, got.Status)

	logs, err := db.ListMachineStatusLog(machine.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// Newest first.
	assert.Equal(t, MachineDown, logs[0].Status)
	assert.Equal(t, "web break", logs[0].Reason)
}

func TestSetMachineStatusValidation(t *testing.T) {
	db := testDB(t)
	_, machine := seedStationWithMachine(t, db)

	assert.ErrorIs(t, db.SetMachineStatus(machine.ID, "EXPLODED", ""), ErrBadStatus)
	assert.ErrorIs(t, db.SetMachineStatus(999, MachineIdle, ""), ErrNotFound)
}

func TestGetMachineByCode(t *testing.T) {
	db := testDB(t)
	_, machine := seedStationWithMachine(t, db)

	got, err := db.GetMachineByCode("PR-01")
	require.NoError(t, err)
	assert.Equal(t, machine.ID, got.ID)

	_, err = db.GetMachineByCode("PR-99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenExceptionDeduplicates(t *testing.T) {
	db := testDB(t)
	_, machine := seedStationWithMachine(t, db)
	sla := time.Now().Add(2 * time.Hour)

	first, err := db.OpenException(ExcMachineDown, "HIGH", machine.ID, sla)
	require.NoError(t, err)
	second, err := db.OpenException(ExcMachineDown, "HIGH", machine.ID, sla)
	require.NoError(t, err)
	assert.Equal(t, first, second, "an identical open exception is reused")

	open, err := db.ListExceptions(ExcOpen, 10)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, db.ResolveExceptions(machine.ID))
	open, err = db.ListExceptions(ExcOpen, 10)
	require.NoError(t, err)
	assert.Empty(t, open)

	resolved, err := db.ListExceptions(ExcResolved, 10)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.NotNil(t, resolved[0].ResolvedAt)
}

func TestOutboxLifecycle(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.EnqueueOutbox("pof.notify.orders.completed", []byte(`{"order_id":1}`), "order_completed"))
	require.NoError(t, db.EnqueueOutbox("pof.notify.orders.completed", []byte(`{"order_id":2}`), "order_completed"))

	pending, err := db.ListPendingOutbox(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, db.BumpOutboxRetries(pending[0].ID))
	require.NoError(t, db.MarkOutboxSent(pending[0].ID))

	pending, err = db.ListPendingOutbox(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestAuditCountSince(t *testing.T) {
	db := testDB(t)
	db.AppendAudit("order", 1, "schedule_override", "", "2026-02-11", "planner")
	db.AppendAudit("order", 2, "schedule_override", "", "2026-02-11", "planner")
	db.AppendAudit("order", 1, "released", "", "", "planner")

	n, err := db.CountAuditSince("schedule_override", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.CountAuditSince("schedule_override", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdminCredentials(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.CreateAdminUser("supervisor", "secret123"))

	ok, err := db.CheckAdminCredentials("supervisor", "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.CheckAdminCredentials("supervisor", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.CheckAdminCredentials("nobody", "secret123")
	require.NoError(t, err)
	assert.False(t, ok)
}
