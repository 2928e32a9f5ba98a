package progress

import (
	"math"
	"time"

	"pofcore/store"
)

// ScheduleOverrideAction is the audit action counted by the overrides KPI.
const ScheduleOverrideAction = "schedule_override"

// StationHealthAll computes per-station load and health from current machine
// statuses. Load is the running share in percent; a single DOWN or BLOCKED
// machine flips the station to WARNING.
func (m *Manager) StationHealthAll() ([]*StationHealth, error) {
	stations, err := m.db.ListStations()
	if err != nil {
		return nil, err
	}
	machines, err := m.db.ListMachines(0)
	if err != nil {
		return nil, err
	}

	byStation := make(map[int64][]*store.Machine)
	for _, mc := range machines {
		byStation[mc.StationID] = append(byStation[mc.StationID], mc)
	}

	var health []*StationHealth
	for _, station := range stations {
		sm := byStation[station.ID]
		h := &StationHealth{Station: station, Machines: len(sm)}
		for _, mc := range sm {
			switch mc.Status {
			case store.MachineRunning:
				h.Running++
			case store.MachineDown, store.MachineBlocked:
				h.Issues++
			}
		}
		if len(sm) > 0 {
			h.Load = roundPct(h.Running, len(sm))
		}
		switch {
		case h.Issues > 0:
			h.Status = HealthWarning
		case h.Running > 0:
			h.Status = HealthHealthy
		default:
			h.Status = HealthIdle
		}
		health = append(health, h)
	}
	return health, nil
}

// Fleet computes the dashboard KPI snapshot. OEE here is an
// availability-weighted proxy (running share of an 85% base), not true OEE.
func (m *Manager) Fleet() (*FleetKPIs, error) {
	machines, err := m.db.ListMachines(0)
	if err != nil {
		return nil, err
	}

	var running, blocked int
	for _, mc := range machines {
		switch mc.Status {
		case store.MachineRunning:
			running++
		case store.MachineDown, store.MachineBlocked:
			blocked++
		}
	}

	kpis := &FleetKPIs{BlockedJobs: blocked}
	if len(machines) > 0 {
		kpis.OEE = int(math.Round(float64(running) / float64(len(machines)) * 85))
		kpis.MachineLoad = roundPct(running, len(machines))
	}

	completed, err := m.db.CountCompleteEvents()
	if err != nil {
		return nil, err
	}
	planned, err := m.db.CountPlanRows()
	if err != nil {
		return nil, err
	}
	if planned > 0 {
		kpis.OutputVsPlan = roundPct(completed, planned)
	}

	now := m.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	overrides, err := m.db.CountAuditSince(ScheduleOverrideAction, midnight)
	if err != nil {
		return nil, err
	}
	kpis.OverridesToday = overrides

	return kpis, nil
}

func roundPct(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}
