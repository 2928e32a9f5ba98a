package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pofcore/config"
	"pofcore/store"
)

func testPlanner() *Planner {
	cfg := config.Default()
	return NewPlanner(&cfg.Policy)
}

func TestDefaultRoutingChainsFourSteps(t *testing.T) {
	pl := testPlanner()
	due := time.Date(2026, 2, 10, 17, 0, 0, 0, time.Local)
	order := &store.SalesOrder{ID: 7, Quantity: 1000, DueDate: due}

	plan := pl.DefaultRouting(order)
	require.Len(t, plan, 4)

	dayStart := time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)
	assert.Equal(t, dayStart, plan[0].PlannedStart)

	for i, row := range plan {
		assert.Equal(t, i+1, row.Sequence)
		assert.Equal(t, int64(7), row.OrderID)
		assert.Equal(t, int64(1000), row.TotalQty)
		assert.Equal(t, row.PlannedStart.Add(row.Duration()), row.PlannedEnd)
		if i > 0 {
			// Chained with no gaps.
			assert.Equal(t, plan[i-1].PlannedEnd, row.PlannedStart)
		}
	}
}

func TestCustomRoutingSkipsUnusableSteps(t *testing.T) {
	pl := testPlanner()
	order := &store.SalesOrder{ID: 1, Quantity: 500, DueDate: time.Date(2026, 2, 10, 12, 0, 0, 0, time.Local)}

	plan := pl.CustomRouting(order, []StepInput{
		{StationID: 1, MachineID: 1, RunMinutes: 60},
		{StationID: 2, MachineID: 0, RunMinutes: 90}, // no machine: skipped
		{StationID: 3, MachineID: 7, RunMinutes: 0},  // no runtime: skipped
		{StationID: 4, MachineID: 9, RunMinutes: 45, SetupMinutes: 10, ChangeoverMinutes: 5},
	})

	require.Len(t, plan, 2)
	assert.Equal(t, 1, plan[0].Sequence)
	assert.Equal(t, 2, plan[1].Sequence)
	assert.Equal(t, int64(4), plan[1].StationID)
	assert.Equal(t, plan[0].PlannedEnd, plan[1].PlannedStart)
	assert.Equal(t, 60*time.Minute, plan[1].Duration())
}

func TestCustomRoutingAllSkippedYieldsEmptyPlan(t *testing.T) {
	pl := testPlanner()
	order := &store.SalesOrder{ID: 2, DueDate: time.Now()}
	plan := pl.CustomRouting(order, []StepInput{{StationID: 1, RunMinutes: 30}})
	assert.Empty(t, plan)
}

func TestChainFromReschedulesWithoutOverlap(t *testing.T) {
	rows := []*store.PlanRow{
		{RunMinutes: 30},
		{RunMinutes: 45, SetupMinutes: 15},
	}
	start := time.Date(2026, 2, 11, 9, 0, 0, 0, time.Local)
	ChainFrom(rows, start)

	assert.Equal(t, start, rows[0].PlannedStart)
	assert.Equal(t, start.Add(30*time.Minute), rows[0].PlannedEnd)
	assert.Equal(t, rows[0].PlannedEnd, rows[1].PlannedStart)
	assert.Equal(t, rows[1].PlannedStart.Add(60*time.Minute), rows[1].PlannedEnd)
}
