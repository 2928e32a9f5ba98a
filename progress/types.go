package progress

import (
	"time"

	"pofcore/store"
)

// Status is the derived execution state of one plan row. It is never stored
// authoritatively: the ledger is the source of truth and Status is recomputed
// (or served from the Redis cache) on demand.
type Status struct {
	PlanRowID       int64      `json:"plan_row_id"`
	State           string     `json:"state"`
	ProgressPercent int        `json:"progress_percent"`
	ActualQty       int64      `json:"actual_qty"`
	ScrapQty        int64      `json:"scrap_qty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Operator        string     `json:"operator,omitempty"`
	PauseReason     string     `json:"pause_reason,omitempty"`
}

// RowRef names a plan row's place in the routing for dashboard summaries.
type RowRef struct {
	PlanRowID int64 `json:"plan_row_id"`
	Sequence  int   `json:"sequence"`
	StationID int64 `json:"station_id"`
	MachineID int64 `json:"machine_id"`
}

// OrderProgress summarizes one order's march through its routing.
type OrderProgress struct {
	OrderID   int64   `json:"order_id"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	// CurrentSeq is the sequence of the running row, or completed+1 when
	// nothing is running and work remains, or total when all rows are done.
	CurrentSeq int     `json:"current"`
	Current    *RowRef `json:"current_row,omitempty"`
	Next       *RowRef `json:"next_row,omitempty"`
	Complete   bool    `json:"complete"`
}

// CurrentJob is the row a machine is working right now plus its order.
type CurrentJob struct {
	PlanRow *store.PlanRow    `json:"plan_row"`
	Order   *store.SalesOrder `json:"order"`
	Status  *Status           `json:"status"`
}

// WorklistItem is one released plan row enriched for the operator terminal.
type WorklistItem struct {
	PlanRow      *store.PlanRow `json:"plan_row"`
	OrderNumber  string         `json:"order_number"`
	CustomerName string         `json:"customer_name"`
	ItemName     string         `json:"item_name"`
	Priority     string         `json:"priority"`
	IsUrgent     bool           `json:"is_urgent"`
	StationCode  string         `json:"station_code"`
	MachineCode  string         `json:"machine_code"`
	Execution    *Status        `json:"execution"`
}

// StationHealth is one station's machine picture.
type StationHealth struct {
	Station  *store.Station `json:"station"`
	Load     int            `json:"load"`
	Running  int            `json:"running"`
	Issues   int            `json:"issues"`
	Machines int            `json:"machines"`
	Status   string         `json:"status"` // HEALTHY, WARNING or IDLE
}

// FleetKPIs is the dashboard-wide snapshot.
type FleetKPIs struct {
	OEE            int `json:"oee"`
	OutputVsPlan   int `json:"output_vs_plan"`
	MachineLoad    int `json:"machine_load"`
	BlockedJobs    int `json:"blocked_jobs"`
	OverridesToday int `json:"overrides_today"`
}

const (
	HealthHealthy = "HEALTHY"
	HealthWarning = "WARNING"
	HealthIdle    = "IDLE"
)

// Derive folds a row's ledger into its Status. planned is the row's planned
// occupancy, used to estimate percent progress for a running row.
func Derive(planRowID int64, events []*store.ExecutionEvent, planned time.Duration, now time.Time) *Status {
	st := &Status{PlanRowID: planRowID, State: store.StatePending}
	for _, ev := range events {
		switch ev.EventType {
		case store.EventStart:
			if st.StartedAt == nil {
				t := ev.CreatedAt
				st.StartedAt = &t
			}
			st.State = store.StateRunning
			st.Operator = ev.Operator
			st.PauseReason = ""
		case store.EventPause:
			st.State = store.StatePaused
			st.Operator = ev.Operator
			st.PauseReason = ev.Note
		case store.EventComplete:
			t := ev.CreatedAt
			st.CompletedAt = &t
			st.State = store.StateCompleted
			st.Operator = ev.Operator
			st.ActualQty = ev.ActualQty
			st.ScrapQty = ev.ScrapQty
			st.ProgressPercent = 100
			// First COMPLETE is authoritative.
			return st
		}
	}
	if st.StartedAt != nil && planned > 0 {
		elapsed := now.Sub(*st.StartedAt)
		pct := int(elapsed * 100 / planned)
		if pct > 99 {
			pct = 99
		}
		if pct < 0 {
			pct = 0
		}
		st.ProgressPercent = pct
	}
	return st
}
