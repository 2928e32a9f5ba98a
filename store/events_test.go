package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerHappyPath(t *testing.T) {
	db := testDB(t)
	_, plan := seedOrderWithPlan(t, db, "SO-078-24", 1)
	rowID := plan[0].ID

	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventStart, Operator: "somchai"}))
	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventPause, Operator: "somchai", Note: "material wait"}))
	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventStart, Operator: "somchai"}))
	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventComplete, Operator: "somchai", ActualQty: 980, ScrapQty: 20}))

	events, err := db.EventsFor(rowID)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, StateCompleted, DeriveState(events))

	// Ledger seq is strictly increasing.
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
}

func TestLedgerCompleteFromPendingFastPath(t *testing.T) {
	db := testDB(t)
	_, plan := seedOrderWithPlan(t, db, "SO-079-34", 1)

	err := db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: plan[0].ID, EventType: EventComplete, Operator: "system-auto"})
	require.NoError(t, err)

	events, err := db.EventsFor(plan[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, DeriveState(events))
}

func TestLedgerPauseFromPendingInvalid(t *testing.T) {
	db := testDB(t)
	_, plan := seedOrderWithPlan(t, db, "SO-080-34", 1)

	err := db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: plan[0].ID, EventType: EventPause, Operator: "somchai"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	events, err := db.EventsFor(plan[0].ID)
	require.NoError(t, err)
	assert.Empty(t, events, "rejected event must not land in the ledger")
}

func TestLedgerStartWhileRunningInvalid(t *testing.T) {
	db := testDB(t)
	_, plan := seedOrderWithPlan(t, db, "SO-068-1234", 1)
	rowID := plan[0].ID

	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventStart, Operator: "a"}))
	err := db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventStart, Operator: "b"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLedgerRejectsEventsAfterComplete(t *testing.T) {
	db := testDB(t)
	_, plan := seedOrderWithPlan(t, db, "SO-2026-1234-01", 1)
	rowID := plan[0].ID

	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventComplete, Operator: "a", ActualQty: 1000}))

	for _, evType := range []string{EventStart, EventPause, EventComplete} {
		err := db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: evType, Operator: "b"})
		assert.ErrorIs(t, err, ErrTerminalState, "event %s after COMPLETE", evType)
	}

	events, err := db.EventsFor(rowID)
	require.NoError(t, err)
	assert.Len(t, events, 1, "ledger must hold exactly one COMPLETE")
}

func TestLedgerConcurrentCompleteSingleWinner(t *testing.T) {
	db := testDB(t)
	_, plan := seedOrderWithPlan(t, db, "SO-2026-234-02", 1)
	rowID := plan[0].ID
	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: rowID, EventType: EventStart, Operator: "somchai"}))

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.AppendExecutionEvent(&ExecutionEvent{
				PlanRowID: rowID, EventType: EventComplete, Operator: "somchai", ActualQty: 1000,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrTerminalState)
		}
	}
	assert.Equal(t, 1, wins, "exactly one COMPLETE must win")

	events, err := db.EventsFor(rowID)
	require.NoError(t, err)
	assert.Len(t, events, 2) // START + the single COMPLETE
}

func TestLedgerUnknownPlanRow(t *testing.T) {
	db := testDB(t)
	err := db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: 9999, EventType: EventStart, Operator: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventsForOrderGroupsByRow(t *testing.T) {
	db := testDB(t)
	order, plan := seedOrderWithPlan(t, db, "SO-2026-34-03", 3)

	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: plan[0].ID, EventType: EventComplete, Operator: "a"}))
	require.NoError(t, db.AppendExecutionEvent(&ExecutionEvent{PlanRowID: plan[1].ID, EventType: EventStart, Operator: "b"}))

	byRow, err := db.EventsForOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, byRow[plan[0].ID], 1)
	assert.Len(t, byRow[plan[1].ID], 1)
	assert.Empty(t, byRow[plan[2].ID])
}
