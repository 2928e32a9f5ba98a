package store

import (
	"database/sql"
	"errors"
	"time"
)

// Machine status values form a closed set, validated at the store boundary.
const (
	MachineRunning     = "RUNNING"
	MachineIdle        = "IDLE"
	MachineSetup       = "SETUP"
	MachineDown        = "DOWN"
	MachineBlocked     = "BLOCKED"
	MachineMaintenance = "MAINTENANCE"
	MachineOffline     = "OFFLINE"
)

func ValidMachineStatus(status string) bool {
	switch status {
	case MachineRunning, MachineIdle, MachineSetup, MachineDown,
		MachineBlocked, MachineMaintenance, MachineOffline:
		return true
	}
	return false
}

type Station struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Machine struct {
	ID            int64     `json:"id"`
	StationID     int64     `json:"station_id"`
	Code          string    `json:"code"`
	StandardSpeed int       `json:"standard_speed"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type MachineStatusLog struct {
	ID        int64     `json:"id"`
	MachineID int64     `json:"machine_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (db *DB) CreateStation(s *Station) error {
	id, err := db.insertID(`INSERT INTO stations (code, name) VALUES (?, ?)`, s.Code, s.Name)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (db *DB) ListStations() ([]*Station, error) {
	rows, err := db.Query(db.Q(`SELECT id, code, name FROM stations ORDER BY id`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stations []*Station
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.ID, &s.Code, &s.Name); err != nil {
			return nil, err
		}
		stations = append(stations, &s)
	}
	return stations, rows.Err()
}

func (db *DB) GetStation(id int64) (*Station, error) {
	var s Station
	err := db.QueryRow(db.Q(`SELECT id, code, name FROM stations WHERE id=?`), id).
		Scan(&s.ID, &s.Code, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) CreateMachine(m *Machine) error {
	if !ValidMachineStatus(m.Status) {
		return ErrBadStatus
	}
	id, err := db.insertID(`INSERT INTO machines (station_id, code, standard_speed, status) VALUES (?, ?, ?, ?)`,
		m.StationID, m.Code, m.StandardSpeed, m.Status)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (db *DB) GetMachine(id int64) (*Machine, error) {
	var m Machine
	var updated dbTime
	err := db.QueryRow(db.Q(`SELECT id, station_id, code, standard_speed, status, updated_at FROM machines WHERE id=?`), id).
		Scan(&m.ID, &m.StationID, &m.Code, &m.StandardSpeed, &m.Status, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.UpdatedAt = updated.Time()
	return &m, nil
}

// GetMachineByCode looks a machine up by its shop-floor code, the handle
// telemetry messages carry.
func (db *DB) GetMachineByCode(code string) (*Machine, error) {
	var m Machine
	var updated dbTime
	err := db.QueryRow(db.Q(`SELECT id, station_id, code, standard_speed, status, updated_at FROM machines WHERE code=?`), code).
		Scan(&m.ID, &m.StationID, &m.Code, &m.StandardSpeed, &m.Status, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.UpdatedAt = updated.Time()
	return &m, nil
}

// ListMachines returns all machines, or only those of one station when
// stationID is non-zero.
func (db *DB) ListMachines(stationID int64) ([]*Machine, error) {
	query := `SELECT id, station_id, code, standard_speed, status, updated_at FROM machines`
	var args []any
	if stationID != 0 {
		query += ` WHERE station_id=?`
		args = append(args, stationID)
	}
	query += ` ORDER BY id`

	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var machines []*Machine
	for rows.Next() {
		var m Machine
		var updated dbTime
		if err := rows.Scan(&m.ID, &m.StationID, &m.Code, &m.StandardSpeed, &m.Status, &updated); err != nil {
			return nil, err
		}
		m.UpdatedAt = updated.Time()
		machines = append(machines, &m)
	}
	return machines, rows.Err()
}

// SetMachineStatus updates the machine's current status and appends a
// status-log entry for the audit/history views.
func (db *DB) SetMachineStatus(id int64, status, reason string) error {
	if !ValidMachineStatus(status) {
		return ErrBadStatus
	}
	result, err := db.Exec(db.Q(`UPDATE machines SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), status, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = db.Exec(db.Q(`INSERT INTO machine_status_log (machine_id, status, reason) VALUES (?, ?, ?)`),
		id, status, reason)
	return err
}

func (db *DB) ListMachineStatusLog(machineID int64, limit int) ([]*MachineStatusLog, error) {
	rows, err := db.Query(db.Q(`SELECT id, machine_id, status, reason, created_at FROM machine_status_log WHERE machine_id=? ORDER BY id DESC LIMIT ?`),
		machineID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []*MachineStatusLog
	for rows.Next() {
		var l MachineStatusLog
		var created dbTime
		if err := rows.Scan(&l.ID, &l.MachineID, &l.Status, &l.Reason, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = created.Time()
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
