// Package routing turns sales orders into chained plan rows: one
// station+machine assignment per step, scheduled back to back from the
// production day start.
package routing

import (
	"time"

	"pofcore/config"
	"pofcore/store"
)

type Planner struct {
	policy *config.PolicyConfig
}

func NewPlanner(policy *config.PolicyConfig) *Planner {
	return &Planner{policy: policy}
}

// StepInput is one caller-supplied routing step. Steps with a missing machine
// or non-positive runtime are skipped, not rejected.
type StepInput struct {
	StationID         int64 `json:"station_id"`
	MachineID         int64 `json:"machine_id"`
	SetupMinutes      int   `json:"setup_minutes"`
	RunMinutes        int   `json:"run_minutes"`
	ChangeoverMinutes int   `json:"changeover_minutes"`
}

// DefaultRouting builds the canonical routing (one step per station in
// station order) chained from the policy day start on the order's due date.
func (pl *Planner) DefaultRouting(order *store.SalesOrder) []*store.PlanRow {
	steps := make([]StepInput, 0, len(pl.policy.DefaultRouting))
	for _, s := range pl.policy.DefaultRouting {
		steps = append(steps, StepInput{
			StationID:  s.StationID,
			MachineID:  s.MachineID,
			RunMinutes: s.RunMinutes,
		})
	}
	return pl.CustomRouting(order, steps)
}

// CustomRouting chains the supplied steps, skipping unusable ones. Surviving
// steps get contiguous 1-based sequence numbers.
func (pl *Planner) CustomRouting(order *store.SalesOrder, steps []StepInput) []*store.PlanRow {
	start := pl.DayStart(order.DueDate)
	var plan []*store.PlanRow
	seq := 0
	for _, s := range steps {
		if s.MachineID == 0 || s.RunMinutes <= 0 {
			continue
		}
		seq++
		row := &store.PlanRow{
			OrderID:           order.ID,
			StationID:         s.StationID,
			MachineID:         s.MachineID,
			Sequence:          seq,
			SetupMinutes:      s.SetupMinutes,
			RunMinutes:        s.RunMinutes,
			ChangeoverMinutes: s.ChangeoverMinutes,
			PlannedStart:      start,
			TotalQty:          order.Quantity,
		}
		row.PlannedEnd = row.PlannedStart.Add(row.Duration())
		start = row.PlannedEnd
		plan = append(plan, row)
	}
	return plan
}

// DayStart pins a timestamp to the policy production-day start on the same
// calendar day.
func (pl *Planner) DayStart(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), pl.policy.DayStartHour, 0, 0, 0, t.Location())
}

// ChainFrom reschedules rows back to back starting at the given time,
// preserving per-row durations. Used after a step edit so the no-overlap
// invariant survives.
func ChainFrom(rows []*store.PlanRow, start time.Time) {
	for _, row := range rows {
		row.PlannedStart = start
		row.PlannedEnd = start.Add(row.Duration())
		start = row.PlannedEnd
	}
}
