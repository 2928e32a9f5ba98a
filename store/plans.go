package store

import (
	"database/sql"
	"errors"
	"time"
)

type PlanRow struct {
	ID                int64     `json:"id"`
	OrderID           int64     `json:"order_id"`
	StationID         int64     `json:"station_id"`
	MachineID         int64     `json:"machine_id"`
	Sequence          int       `json:"sequence"`
	SetupMinutes      int       `json:"setup_minutes"`
	RunMinutes        int       `json:"run_minutes"`
	ChangeoverMinutes int       `json:"changeover_minutes"`
	PlannedStart      time.Time `json:"planned_start"`
	PlannedEnd        time.Time `json:"planned_end"`
	TotalQty          int64     `json:"total_qty"`
}

// Duration is the full planned occupancy of the row.
func (p *PlanRow) Duration() time.Duration {
	return time.Duration(p.SetupMinutes+p.RunMinutes+p.ChangeoverMinutes) * time.Minute
}

const planRowColumns = `id, order_id, station_id, machine_id, sequence, setup_minutes, run_minutes, changeover_minutes, planned_start, planned_end, total_qty`

// CreateOrderWithPlan inserts an order and its routing atomically: either the
// order plus every plan row lands, or nothing does.
func (db *DB) CreateOrderWithPlan(o *SalesOrder, plan []*PlanRow) error {
	return db.withTx(func(tx *sql.Tx) error {
		if err := db.createOrderTx(tx, o); err != nil {
			return err
		}
		for _, row := range plan {
			row.OrderID = o.ID
			if err := db.insertPlanRowTx(tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) insertPlanRowTx(tx *sql.Tx, p *PlanRow) error {
	id, err := db.txInsertID(tx,
		`INSERT INTO plan_rows (order_id, station_id, machine_id, sequence, setup_minutes, run_minutes, changeover_minutes, planned_start, planned_end, total_qty)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.StationID, p.MachineID, p.Sequence, p.SetupMinutes, p.RunMinutes,
		p.ChangeoverMinutes, fmtTime(p.PlannedStart), fmtTime(p.PlannedEnd), p.TotalQty)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (db *DB) GetPlanRow(id int64) (*PlanRow, error) {
	row := db.QueryRow(db.Q(`SELECT `+planRowColumns+` FROM plan_rows WHERE id=?`), id)
	p, err := scanPlanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListPlanRowsForOrder returns the order's routing in sequence order.
func (db *DB) ListPlanRowsForOrder(orderID int64) ([]*PlanRow, error) {
	return db.listPlanRows(`order_id=? ORDER BY sequence`, orderID)
}

// ListPlanRowsForMachine returns all rows assigned to a machine, earliest
// planned first.
func (db *DB) ListPlanRowsForMachine(machineID int64) ([]*PlanRow, error) {
	return db.listPlanRows(`machine_id=? ORDER BY planned_start, sequence`, machineID)
}

// ListPlanRowsForStation returns all rows routed through a station.
func (db *DB) ListPlanRowsForStation(stationID int64) ([]*PlanRow, error) {
	return db.listPlanRows(`station_id=? ORDER BY planned_start, sequence`, stationID)
}

func (db *DB) listPlanRows(condAndOrder string, arg any) ([]*PlanRow, error) {
	rows, err := db.Query(db.Q(`SELECT `+planRowColumns+` FROM plan_rows WHERE `+condAndOrder), arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlanRows(rows)
}

func collectPlanRows(rows *sql.Rows) ([]*PlanRow, error) {
	var plan []*PlanRow
	for rows.Next() {
		p, err := scanPlanRow(rows)
		if err != nil {
			return nil, err
		}
		plan = append(plan, p)
	}
	return plan, rows.Err()
}

// InsertPlanRowAfter inserts a step after the given sequence number (0 for the
// head) and renormalizes the order's sequences to a contiguous 1..n.
func (db *DB) InsertPlanRowAfter(p *PlanRow, afterSequence int) error {
	return db.withTx(func(tx *sql.Tx) error {
		// Shift trailing rows out of the way. The offset keeps intermediate
		// values clear of the UNIQUE(order_id, sequence) constraint.
		_, err := tx.Exec(db.Q(`UPDATE plan_rows SET sequence = sequence + 1000 WHERE order_id=? AND sequence > ?`),
			p.OrderID, afterSequence)
		if err != nil {
			return err
		}
		p.Sequence = afterSequence + 1
		if err := db.insertPlanRowTx(tx, p); err != nil {
			return err
		}
		_, err = tx.Exec(db.Q(`UPDATE plan_rows SET sequence = sequence - 999 WHERE order_id=? AND sequence > 1000`),
			p.OrderID)
		return err
	})
}

// RemovePlanRow deletes a step and renormalizes the remaining sequences.
// An order must always keep at least one routing step.
func (db *DB) RemovePlanRow(id int64) error {
	return db.withTx(func(tx *sql.Tx) error {
		var orderID int64
		var seq int
		err := tx.QueryRow(db.Q(`SELECT order_id, sequence FROM plan_rows WHERE id=?`), id).Scan(&orderID, &seq)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(db.Q(`SELECT COUNT(*) FROM plan_rows WHERE order_id=?`), orderID).Scan(&count); err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastPlanRow
		}

		if _, err := tx.Exec(db.Q(`DELETE FROM plan_rows WHERE id=?`), id); err != nil {
			return err
		}
		// Two-phase shift, as on insert: a single-pass decrement trips
		// UNIQUE(order_id, sequence) when row-id order disagrees with
		// sequence order.
		if _, err := tx.Exec(db.Q(`UPDATE plan_rows SET sequence = sequence + 1000 WHERE order_id=? AND sequence > ?`),
			orderID, seq); err != nil {
			return err
		}
		_, err = tx.Exec(db.Q(`UPDATE plan_rows SET sequence = sequence - 1001 WHERE order_id=? AND sequence > 1000`),
			orderID)
		return err
	})
}

// PlanRowPatch carries optional updates for UpdatePlanRow. Nil fields are
// left untouched.
type PlanRowPatch struct {
	StationID         *int64     `json:"station_id,omitempty"`
	MachineID         *int64     `json:"machine_id,omitempty"`
	SetupMinutes      *int       `json:"setup_minutes,omitempty"`
	RunMinutes        *int       `json:"run_minutes,omitempty"`
	ChangeoverMinutes *int       `json:"changeover_minutes,omitempty"`
	PlannedStart      *time.Time `json:"planned_start,omitempty"`
	TotalQty          *int64     `json:"total_qty,omitempty"`
}

// UpdatePlanRow applies a patch and recomputes planned_end from the timing
// fields so the chaining invariant holds. The read-modify-write runs in one
// transaction with the row locked, so concurrent edits never lose a patch.
func (db *DB) UpdatePlanRow(id int64, patch *PlanRowPatch) (*PlanRow, error) {
	var p *PlanRow
	err := db.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow(db.Q(`SELECT `+planRowColumns+` FROM plan_rows WHERE id=?`)+db.dialect.LockRow(), id)
		var err error
		p, err = scanPlanRow(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if patch.StationID != nil {
			p.StationID = *patch.StationID
		}
		if patch.MachineID != nil {
			p.MachineID = *patch.MachineID
		}
		if patch.SetupMinutes != nil {
			p.SetupMinutes = *patch.SetupMinutes
		}
		if patch.RunMinutes != nil {
			p.RunMinutes = *patch.RunMinutes
		}
		if patch.ChangeoverMinutes != nil {
			p.ChangeoverMinutes = *patch.ChangeoverMinutes
		}
		if patch.PlannedStart != nil {
			p.PlannedStart = *patch.PlannedStart
		}
		if patch.TotalQty != nil {
			p.TotalQty = *patch.TotalQty
		}
		p.PlannedEnd = p.PlannedStart.Add(p.Duration())

		_, err = tx.Exec(db.Q(`UPDATE plan_rows SET station_id=?, machine_id=?, setup_minutes=?, run_minutes=?, changeover_minutes=?, planned_start=?, planned_end=?, total_qty=? WHERE id=?`),
			p.StationID, p.MachineID, p.SetupMinutes, p.RunMinutes, p.ChangeoverMinutes,
			fmtTime(p.PlannedStart), fmtTime(p.PlannedEnd), p.TotalQty, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RechainPlanRows loads an order's routing in sequence order with a row
// lock, hands it to chain for rescheduling and persists the new windows,
// all in one transaction.
func (db *DB) RechainPlanRows(orderID int64, chain func([]*PlanRow)) error {
	return db.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(db.Q(`SELECT `+planRowColumns+` FROM plan_rows WHERE order_id=? ORDER BY sequence`)+db.dialect.LockRow(), orderID)
		if err != nil {
			return err
		}
		plan, err := collectPlanRows(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			return nil
		}
		chain(plan)
		for _, p := range plan {
			if _, err := tx.Exec(db.Q(`UPDATE plan_rows SET planned_start=?, planned_end=? WHERE id=?`),
				fmtTime(p.PlannedStart), fmtTime(p.PlannedEnd), p.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) CountPlanRows() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM plan_rows`).Scan(&n)
	return n, err
}

func scanPlanRow(r rowScanner) (*PlanRow, error) {
	var p PlanRow
	var start, end dbTime
	if err := r.Scan(&p.ID, &p.OrderID, &p.StationID, &p.MachineID, &p.Sequence,
		&p.SetupMinutes, &p.RunMinutes, &p.ChangeoverMinutes, &start, &end, &p.TotalQty); err != nil {
		return nil, err
	}
	p.PlannedStart = start.Time()
	p.PlannedEnd = end.Time()
	return &p, nil
}
