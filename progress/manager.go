package progress

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"pofcore/store"
)

// Manager answers all derived-state questions: per-row execution status,
// per-order progress, per-machine current job and worklist. Statuses are
// cached write-through in Redis and refreshed on every ledger append; when
// Redis is unavailable everything falls back to deriving from SQL.
type Manager struct {
	db    *store.DB
	redis *RedisStore
	now   func() time.Time
}

func NewManager(db *store.DB, redis *RedisStore) *Manager {
	return &Manager{db: db, redis: redis, now: time.Now}
}

// StatusOf returns the derived status of one plan row, preferring the cache.
func (m *Manager) StatusOf(planRowID int64) (*Status, error) {
	if m.redis != nil {
		if st, err := m.redis.GetStatus(context.Background(), planRowID); err == nil {
			return st, nil
		}
	}
	return m.Refresh(planRowID)
}

// Refresh rederives a row's status from the ledger and writes it back to the
// cache. Called by the engine whenever an event lands on that row.
func (m *Manager) Refresh(planRowID int64) (*Status, error) {
	row, err := m.db.GetPlanRow(planRowID)
	if err != nil {
		return nil, err
	}
	events, err := m.db.EventsFor(planRowID)
	if err != nil {
		return nil, err
	}
	st := Derive(planRowID, events, row.Duration(), m.now())
	if m.redis != nil {
		if err := m.redis.SetStatus(context.Background(), st); err != nil {
			log.Printf("progress: cache status for row %d: %v", planRowID, err)
		}
	}
	return st, nil
}

// Forget drops a removed row's cached status.
func (m *Manager) Forget(planRowID int64) {
	if m.redis != nil {
		m.redis.DeleteStatus(context.Background(), planRowID)
	}
}

// SyncRedisFromSQL rebuilds the whole status cache from the ledger. Called on
// startup; orders are warmed concurrently since each derivation is
// independent.
func (m *Manager) SyncRedisFromSQL() error {
	if m.redis == nil {
		return nil
	}
	ctx := context.Background()
	if err := m.redis.FlushStatuses(ctx); err != nil {
		return err
	}

	orders, err := m.db.ListOrders(store.OrderFilter{})
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, order := range orders {
		orderID := order.ID
		g.Go(func() error {
			rows, err := m.db.ListPlanRowsForOrder(orderID)
			if err != nil {
				return err
			}
			events, err := m.db.EventsForOrder(orderID)
			if err != nil {
				return err
			}
			for _, row := range rows {
				st := Derive(row.ID, events[row.ID], row.Duration(), m.now())
				if err := m.redis.SetStatus(ctx, st); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("progress: synced %d orders to redis", len(orders))
	return nil
}

// ProgressOf summarizes an order: completed count, the running row (lowest
// sequence wins if several claim to run) and the next row in queue.
func (m *Manager) ProgressOf(orderID int64) (*OrderProgress, error) {
	if _, err := m.db.GetOrder(orderID); err != nil {
		return nil, err
	}
	rows, err := m.db.ListPlanRowsForOrder(orderID)
	if err != nil {
		return nil, err
	}
	events, err := m.db.EventsForOrder(orderID)
	if err != nil {
		return nil, err
	}

	prog := &OrderProgress{OrderID: orderID, Total: len(rows)}
	for _, row := range rows {
		state := store.DeriveState(events[row.ID])
		switch state {
		case store.StateCompleted:
			prog.Completed++
		case store.StateRunning, store.StatePaused:
			if prog.Current == nil {
				prog.Current = rowRef(row)
			}
		}
	}

	switch {
	case prog.Current != nil:
		prog.CurrentSeq = prog.Current.Sequence
	case prog.Total > 0 && prog.Completed == prog.Total:
		prog.CurrentSeq = prog.Total
	default:
		prog.CurrentSeq = prog.Completed + 1
	}

	// Next row in queue: first row with no events at all.
	for _, row := range rows {
		if len(events[row.ID]) == 0 {
			prog.Next = rowRef(row)
			break
		}
	}

	// An order with no routing has done no work; it is not complete.
	prog.Complete = prog.Total > 0 && prog.Completed == prog.Total
	return prog, nil
}

// IsOrderComplete reports whether every plan row of the order is COMPLETED.
// Orders with zero plan rows are not complete: no work is not all work done.
func (m *Manager) IsOrderComplete(orderID int64) (bool, error) {
	prog, err := m.ProgressOf(orderID)
	if err != nil {
		return false, err
	}
	return prog.Complete, nil
}

// CurrentJobOn returns the plan row running on a machine (a START with no
// terminating COMPLETE), or nil when the machine is between jobs.
func (m *Manager) CurrentJobOn(machineID int64) (*CurrentJob, error) {
	rows, err := m.db.ListPlanRowsForMachine(machineID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		st, err := m.StatusOf(row.ID)
		if err != nil {
			return nil, err
		}
		if st.State == store.StateRunning || st.State == store.StatePaused {
			order, err := m.db.GetOrder(row.OrderID)
			if err != nil {
				return nil, err
			}
			return &CurrentJob{PlanRow: row, Order: order, Status: st}, nil
		}
	}
	return nil, nil
}

// WorklistFor lists a machine's plan rows from released orders, enriched for
// the operator terminal. Unreleased orders stay invisible here.
func (m *Manager) WorklistFor(machineID int64) ([]*WorklistItem, error) {
	machine, err := m.db.GetMachine(machineID)
	if err != nil {
		return nil, err
	}
	station, err := m.db.GetStation(machine.StationID)
	if err != nil {
		return nil, err
	}
	rows, err := m.db.ListPlanRowsForMachine(machineID)
	if err != nil {
		return nil, err
	}

	var items []*WorklistItem
	for _, row := range rows {
		order, err := m.db.GetOrder(row.OrderID)
		if err != nil {
			return nil, err
		}
		if !order.Released {
			continue
		}
		st, err := m.StatusOf(row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, &WorklistItem{
			PlanRow:      row,
			OrderNumber:  order.OrderNumber,
			CustomerName: order.CustomerName,
			ItemName:     order.ItemName,
			Priority:     order.Priority,
			IsUrgent:     order.IsUrgent,
			StationCode:  station.Code,
			MachineCode:  machine.Code,
			Execution:    st,
		})
	}
	return items, nil
}

func rowRef(row *store.PlanRow) *RowRef {
	return &RowRef{
		PlanRowID: row.ID,
		Sequence:  row.Sequence,
		StationID: row.StationID,
		MachineID: row.MachineID,
	}
}
