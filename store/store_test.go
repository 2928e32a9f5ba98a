package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pofcore/config"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedOrderWithPlan creates an order with n chained plan rows and returns both.
func seedOrderWithPlan(t *testing.T, db *DB, orderNumber string, n int) (*SalesOrder, []*PlanRow) {
	t.Helper()
	order := &SalesOrder{
		OrderNumber:  orderNumber,
		CustomerName: "Siam Food Co., Ltd",
		ItemName:     "Packaging Film AW",
		Quantity:     1000,
		Priority:     PriorityNormal,
		DueDate:      time.Date(2026, 2, 10, 17, 0, 0, 0, time.Local),
	}
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)
	var plan []*PlanRow
	for i := 0; i < n; i++ {
		row := &PlanRow{
			StationID:    int64(i + 1),
			MachineID:    int64(i*3 + 1),
			Sequence:     i + 1,
			RunMinutes:   60,
			PlannedStart: start,
			TotalQty:     order.Quantity,
		}
		row.PlannedEnd = start.Add(row.Duration())
		start = row.PlannedEnd
		plan = append(plan, row)
	}
	require.NoError(t, db.CreateOrderWithPlan(order, plan))
	return order, plan
}
