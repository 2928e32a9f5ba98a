package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRoundTrip(t *testing.T) {
	db := testDB(t)
	order := &SalesOrder{
		OrderNumber:  "SO-2026-0105-1234",
		CustomerName: "Thai Snack Co.,Ltd.",
		ItemName:     "Film AY",
		Quantity:     9000,
		Priority:     PriorityHigh,
		IsUrgent:     true,
		UrgentReason: "re-stock for automotive line",
		DueDate:      time.Date(2026, 2, 10, 17, 0, 0, 0, time.Local),
	}
	require.NoError(t, db.CreateOrder(order))
	require.NotZero(t, order.ID)
	require.NotEmpty(t, order.OrderUUID)

	got, err := db.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.Equal(t, order.Quantity, got.Quantity)
	assert.True(t, got.IsUrgent)
	assert.False(t, got.Released)

	byUUID, err := db.GetOrderByUUID(order.OrderUUID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byUUID.ID)

	byNumber, err := db.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestCreateOrderDuplicateNumber(t *testing.T) {
	db := testDB(t)
	first := &SalesOrder{OrderNumber: "SO-068-1234", Quantity: 100, Priority: PriorityNormal, DueDate: time.Now()}
	require.NoError(t, db.CreateOrder(first))

	dup := &SalesOrder{OrderNumber: "SO-068-1234", Quantity: 200, Priority: PriorityNormal, DueDate: time.Now()}
	err := db.CreateOrder(dup)
	assert.ErrorIs(t, err, ErrDuplicateOrderNumber)
}

func TestGetOrderNotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetOrder(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAmendPriorityUrgentImpliesUrgency(t *testing.T) {
	db := testDB(t)
	order := &SalesOrder{OrderNumber: "SO-079-34", Quantity: 100, Priority: PriorityNormal, DueDate: time.Now()}
	require.NoError(t, db.CreateOrder(order))

	require.NoError(t, db.AmendPriority(order.ID, PriorityUrgent, "line down at customer"))
	got, err := db.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, got.Priority)
	assert.True(t, got.IsUrgent)

	require.NoError(t, db.AmendPriority(order.ID, PriorityNormal, "resolved"))
	got, err = db.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, got.Priority)
	assert.False(t, got.IsUrgent)
}

func TestAmendPriorityUnknownOrder(t *testing.T) {
	db := testDB(t)
	err := db.AmendPriority(404, PriorityHigh, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseOrders(t *testing.T) {
	db := testDB(t)
	a := &SalesOrder{OrderNumber: "SO-26-5001", Quantity: 100, Priority: PriorityNormal, DueDate: time.Now()}
	b := &SalesOrder{OrderNumber: "SO-26-5002", Quantity: 100, Priority: PriorityNormal, DueDate: time.Now()}
	require.NoError(t, db.CreateOrder(a))
	require.NoError(t, db.CreateOrder(b))

	require.NoError(t, db.ReleaseOrders([]int64{a.ID}))

	gotA, _ := db.GetOrder(a.ID)
	gotB, _ := db.GetOrder(b.ID)
	assert.True(t, gotA.Released)
	assert.False(t, gotB.Released)
}

func TestListOrdersFilters(t *testing.T) {
	db := testDB(t)
	due := time.Date(2026, 2, 10, 12, 0, 0, 0, time.Local)
	urgent := &SalesOrder{OrderNumber: "SO-F-1", Quantity: 10, Priority: PriorityUrgent, IsUrgent: true, DueDate: due}
	normal := &SalesOrder{OrderNumber: "SO-F-2", Quantity: 10, Priority: PriorityNormal, DueDate: due.AddDate(0, 0, 1)}
	require.NoError(t, db.CreateOrder(urgent))
	require.NoError(t, db.CreateOrder(normal))

	all, err := db.ListOrders(OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	urgentOnly, err := db.ListOrders(OrderFilter{Urgent: true})
	require.NoError(t, err)
	require.Len(t, urgentOnly, 1)
	assert.Equal(t, "SO-F-1", urgentOnly[0].OrderNumber)

	dayOne, err := db.ListOrders(OrderFilter{
		DueFrom: due.Add(-time.Hour),
		DueTo:   due.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, dayOne, 1)
	assert.Equal(t, "SO-F-1", dayOne[0].OrderNumber)
}
