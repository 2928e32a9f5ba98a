package store

import (
	"time"
)

const (
	ExcMachineDown = "MACHINE_DOWN"
	ExcBlockedJob  = "BLOCKED_JOB"

	ExcOpen     = "OPEN"
	ExcResolved = "RESOLVED"
)

type Exception struct {
	ID         int64      `json:"id"`
	ExcType    string     `json:"exc_type"`
	Severity   string     `json:"severity"`
	MachineID  int64      `json:"machine_id"`
	Status     string     `json:"status"`
	SLADue     *time.Time `json:"sla_due,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// OpenException records a machine exception unless an identical one is
// already open for that machine.
func (db *DB) OpenException(excType, severity string, machineID int64, slaDue time.Time) (int64, error) {
	var existing int64
	err := db.QueryRow(db.Q(`SELECT id FROM exceptions WHERE machine_id=? AND exc_type=? AND status=?`),
		machineID, excType, ExcOpen).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	return db.insertID(`INSERT INTO exceptions (exc_type, severity, machine_id, status, sla_due) VALUES (?, ?, ?, ?, ?)`,
		excType, severity, machineID, ExcOpen, fmtTime(slaDue))
}

// ResolveExceptions closes all open exceptions for a machine.
func (db *DB) ResolveExceptions(machineID int64) error {
	_, err := db.Exec(db.Q(`UPDATE exceptions SET status=?, resolved_at=datetime('now','localtime') WHERE machine_id=? AND status=?`),
		ExcResolved, machineID, ExcOpen)
	return err
}

func (db *DB) ListExceptions(status string, limit int) ([]*Exception, error) {
	query := `SELECT id, exc_type, severity, machine_id, status, sla_due, created_at, resolved_at FROM exceptions`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var excs []*Exception
	for rows.Next() {
		var e Exception
		var created dbTime
		var sla, resolved dbTimePtr
		if err := rows.Scan(&e.ID, &e.ExcType, &e.Severity, &e.MachineID, &e.Status, &sla, &created, &resolved); err != nil {
			return nil, err
		}
		e.CreatedAt = created.Time()
		e.SLADue = sla.Ptr()
		e.ResolvedAt = resolved.Ptr()
		excs = append(excs, &e)
	}
	return excs, rows.Err()
}
