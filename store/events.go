package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	EventStart    = "START"
	EventPause    = "PAUSE"
	EventComplete = "COMPLETE"
)

// Execution states derived from the ledger.
const (
	StatePending   = "PENDING"
	StateRunning   = "RUNNING"
	StatePaused    = "PAUSED"
	StateCompleted = "COMPLETED"
)

type ExecutionEvent struct {
	Seq       int64     `json:"seq"`
	PlanRowID int64     `json:"plan_row_id"`
	EventType string    `json:"event_type"`
	Operator  string    `json:"operator"`
	Note      string    `json:"note,omitempty"`
	ActualQty int64     `json:"actual_qty,omitempty"`
	ScrapQty  int64     `json:"scrap_qty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const eventColumns = `seq, plan_row_id, event_type, operator, note, actual_qty, scrap_qty, created_at`

// AppendExecutionEvent validates the transition against the row's derived
// state and appends the event, all inside one transaction with the plan row
// locked. Concurrent completions on the same row resolve to exactly one
// COMPLETE in the ledger; the loser observes ErrTerminalState.
//
// The ledger assigns seq itself (a monotonically increasing logical clock),
// so caller clock skew never reorders a row's history.
func (db *DB) AppendExecutionEvent(ev *ExecutionEvent) error {
	return db.withTx(func(tx *sql.Tx) error {
		var rowID int64
		err := tx.QueryRow(db.Q(`SELECT id FROM plan_rows WHERE id=?`)+db.dialect.LockRow(), ev.PlanRowID).Scan(&rowID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		events, err := db.eventsForTx(tx, ev.PlanRowID)
		if err != nil {
			return err
		}
		state := DeriveState(events)
		if err := checkTransition(state, ev.EventType); err != nil {
			return err
		}

		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = time.Now()
		}
		seq, err := db.txInsertID(tx,
			`INSERT INTO execution_events (plan_row_id, event_type, operator, note, actual_qty, scrap_qty, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.PlanRowID, ev.EventType, ev.Operator, ev.Note, ev.ActualQty, ev.ScrapQty, fmtTime(ev.CreatedAt))
		if err != nil {
			return err
		}
		ev.Seq = seq
		return nil
	})
}

func checkTransition(state, eventType string) error {
	if state == StateCompleted {
		return ErrTerminalState
	}
	switch eventType {
	case EventStart:
		if state == StateRunning {
			return fmt.Errorf("%w: START while %s", ErrInvalidTransition, state)
		}
	case EventPause:
		if state != StateRunning {
			return fmt.Errorf("%w: PAUSE while %s", ErrInvalidTransition, state)
		}
	case EventComplete:
		// COMPLETE is allowed from PENDING (fast-path activation), RUNNING
		// and PAUSED.
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidTransition, eventType)
	}
	return nil
}

// EventsFor returns a plan row's ledger in append order.
func (db *DB) EventsFor(planRowID int64) ([]*ExecutionEvent, error) {
	rows, err := db.Query(db.Q(`SELECT `+eventColumns+` FROM execution_events WHERE plan_row_id=? ORDER BY seq`), planRowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (db *DB) eventsForTx(tx *sql.Tx, planRowID int64) ([]*ExecutionEvent, error) {
	rows, err := tx.Query(db.Q(`SELECT `+eventColumns+` FROM execution_events WHERE plan_row_id=? ORDER BY seq`), planRowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// EventsForOrder returns the ledgers of all of an order's plan rows in one
// query, keyed by plan row id.
func (db *DB) EventsForOrder(orderID int64) (map[int64][]*ExecutionEvent, error) {
	rows, err := db.Query(db.Q(`SELECT e.seq, e.plan_row_id, e.event_type, e.operator, e.note, e.actual_qty, e.scrap_qty, e.created_at
		FROM execution_events e JOIN plan_rows p ON p.id = e.plan_row_id
		WHERE p.order_id=? ORDER BY e.seq`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	byRow := make(map[int64][]*ExecutionEvent)
	for _, ev := range events {
		byRow[ev.PlanRowID] = append(byRow[ev.PlanRowID], ev)
	}
	return byRow, nil
}

func (db *DB) CountCompleteEvents() (int, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM execution_events WHERE event_type=?`), EventComplete).Scan(&n)
	return n, err
}

func collectEvents(rows *sql.Rows) ([]*ExecutionEvent, error) {
	var events []*ExecutionEvent
	for rows.Next() {
		var e ExecutionEvent
		var created dbTime
		if err := rows.Scan(&e.Seq, &e.PlanRowID, &e.EventType, &e.Operator, &e.Note,
			&e.ActualQty, &e.ScrapQty, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = created.Time()
		events = append(events, &e)
	}
	return events, rows.Err()
}

// DeriveState folds a row's ledger into its current state. The first
// COMPLETE is terminal; duplicates are tolerated by never looking past it.
func DeriveState(events []*ExecutionEvent) string {
	state := StatePending
	for _, ev := range events {
		switch ev.EventType {
		case EventStart:
			state = StateRunning
		case EventPause:
			state = StatePaused
		case EventComplete:
			return StateCompleted
		}
	}
	return state
}
