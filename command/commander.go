// Package command is the mutating surface of the core: order intake, release,
// step lifecycle and machine administration. It validates, writes through the
// store and emits domain events; it never talks to transports itself.
package command

import (
	"errors"
	"strings"
	"time"

	"pofcore/progress"
	"pofcore/routing"
	"pofcore/store"
)

// SystemOperator tags ledger events appended by the system rather than a
// person, such as immediate activation from the dashboard.
const SystemOperator = "system-auto"

type Commander struct {
	db       *store.DB
	planner  *routing.Planner
	progress *progress.Manager
	emitter  Emitter
}

func New(db *store.DB, planner *routing.Planner, prog *progress.Manager, emitter Emitter) *Commander {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Commander{db: db, planner: planner, progress: prog, emitter: emitter}
}

// OrderInput is the order-intake request. Steps are optional; without them
// the default routing applies.
type OrderInput struct {
	OrderNumber  string              `json:"order_number"`
	CustomerName string              `json:"customer_name"`
	ItemName     string              `json:"item_name"`
	Quantity     int64               `json:"quantity"`
	Priority     string              `json:"priority"`
	UrgentReason string              `json:"urgent_reason"`
	DueDate      time.Time           `json:"due_date"`
	Steps        []routing.StepInput `json:"steps,omitempty"`
}

// CreateAndScheduleOrder validates the input, creates the order and its
// routing atomically and returns both. Nothing is persisted on failure.
func (c *Commander) CreateAndScheduleOrder(input *OrderInput) (*store.SalesOrder, []*store.PlanRow, error) {
	input.OrderNumber = strings.TrimSpace(input.OrderNumber)
	if input.OrderNumber == "" {
		return nil, nil, invalid("order_number", "required")
	}
	if input.Quantity <= 0 {
		return nil, nil, invalid("quantity", "must be positive")
	}
	priority := input.Priority
	if priority == "" {
		priority = store.PriorityNormal
	}
	if !store.ValidPriority(priority) {
		return nil, nil, invalid("priority", "must be NORMAL, HIGH or URGENT")
	}
	due := input.DueDate
	if due.IsZero() {
		due = time.Now()
	}

	order := &store.SalesOrder{
		OrderNumber:  input.OrderNumber,
		CustomerName: input.CustomerName,
		ItemName:     input.ItemName,
		Quantity:     input.Quantity,
		Priority:     priority,
		IsUrgent:     priority == store.PriorityUrgent,
		UrgentReason: input.UrgentReason,
		DueDate:      due,
	}

	var plan []*store.PlanRow
	if len(input.Steps) > 0 {
		plan = c.planner.CustomRouting(order, input.Steps)
	} else {
		plan = c.planner.DefaultRouting(order)
	}

	if err := c.db.CreateOrderWithPlan(order, plan); err != nil {
		if errors.Is(err, store.ErrDuplicateOrderNumber) {
			return nil, nil, invalid("order_number", "already exists")
		}
		return nil, nil, err
	}

	c.emitter.EmitOrderCreated(order.ID, order.OrderUUID, order.OrderNumber, len(plan))
	return order, plan, nil
}

// ActivateImmediately appends a system START to the order's first untouched
// plan row. Returns false when every row already has history.
func (c *Commander) ActivateImmediately(orderID int64) (bool, error) {
	if _, err := c.db.GetOrder(orderID); err != nil {
		return false, err
	}
	rows, err := c.db.ListPlanRowsForOrder(orderID)
	if err != nil {
		return false, err
	}
	events, err := c.db.EventsForOrder(orderID)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if len(events[row.ID]) > 0 {
			continue
		}
		ev := &store.ExecutionEvent{
			PlanRowID: row.ID,
			EventType: store.EventStart,
			Operator:  SystemOperator,
			Note:      "urgent activation",
		}
		if err := c.db.AppendExecutionEvent(ev); err != nil {
			return false, err
		}
		c.emitter.EmitStepStarted(row.ID, orderID, SystemOperator)
		return true, nil
	}
	return false, nil
}

// ReleaseOrders makes orders visible to operator worklists.
func (c *Commander) ReleaseOrders(orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return invalid("order_ids", "required")
	}
	if err := c.db.ReleaseOrders(orderIDs); err != nil {
		return err
	}
	for _, id := range orderIDs {
		c.emitter.EmitOrderReleased(id)
	}
	return nil
}

// ScheduleForDate records a manual scheduling override for an order. The
// override trail feeds the overrides-today KPI.
func (c *Commander) ScheduleForDate(orderID int64, date, actor, reason string) error {
	if _, err := c.db.GetOrder(orderID); err != nil {
		return err
	}
	if actor == "" {
		actor = SystemOperator
	}
	c.emitter.EmitScheduleOverride(orderID, date, actor, reason)
	return nil
}

// StartStep appends a START for an operator picking up a plan row.
func (c *Commander) StartStep(planRowID int64, operator string) (*store.ExecutionEvent, error) {
	if operator == "" {
		return nil, invalid("operator", "required")
	}
	row, err := c.db.GetPlanRow(planRowID)
	if err != nil {
		return nil, err
	}
	ev := &store.ExecutionEvent{PlanRowID: planRowID, EventType: store.EventStart, Operator: operator}
	if err := c.db.AppendExecutionEvent(ev); err != nil {
		return nil, err
	}
	c.emitter.EmitStepStarted(planRowID, row.OrderID, operator)
	return ev, nil
}

// PauseStep appends a PAUSE with the operator's reason.
func (c *Commander) PauseStep(planRowID int64, operator, reason string) (*store.ExecutionEvent, error) {
	if operator == "" {
		return nil, invalid("operator", "required")
	}
	row, err := c.db.GetPlanRow(planRowID)
	if err != nil {
		return nil, err
	}
	ev := &store.ExecutionEvent{PlanRowID: planRowID, EventType: store.EventPause, Operator: operator, Note: reason}
	if err := c.db.AppendExecutionEvent(ev); err != nil {
		return nil, err
	}
	c.emitter.EmitStepPaused(planRowID, row.OrderID, operator, reason)
	return ev, nil
}

// CompleteStep appends the terminal COMPLETE with produced and scrapped
// quantities, then checks whether the whole order just finished.
func (c *Commander) CompleteStep(planRowID int64, operator string, actualQty, scrapQty int64) (*store.ExecutionEvent, error) {
	if operator == "" {
		return nil, invalid("operator", "required")
	}
	if actualQty < 0 || scrapQty < 0 {
		return nil, invalid("quantity", "must not be negative")
	}
	row, err := c.db.GetPlanRow(planRowID)
	if err != nil {
		return nil, err
	}
	ev := &store.ExecutionEvent{
		PlanRowID: planRowID,
		EventType: store.EventComplete,
		Operator:  operator,
		ActualQty: actualQty,
		ScrapQty:  scrapQty,
	}
	if err := c.db.AppendExecutionEvent(ev); err != nil {
		return nil, err
	}
	c.emitter.EmitStepCompleted(planRowID, row.OrderID, operator, actualQty, scrapQty)

	done, err := c.progress.IsOrderComplete(row.OrderID)
	if err == nil && done {
		if order, err := c.db.GetOrder(row.OrderID); err == nil {
			c.emitter.EmitOrderCompleted(order.ID, order.OrderUUID, order.OrderNumber)
		}
	}
	return ev, nil
}

// AmendPriority changes an order's priority administratively.
func (c *Commander) AmendPriority(orderID int64, priority, reason string) error {
	if !store.ValidPriority(priority) {
		return invalid("priority", "must be NORMAL, HIGH or URGENT")
	}
	return c.db.AmendPriority(orderID, priority, reason)
}

// AddStep inserts a routing step after the given sequence (0 for the head)
// and rechains the order's timeline.
func (c *Commander) AddStep(orderID int64, afterSequence int, step routing.StepInput) (*store.PlanRow, error) {
	order, err := c.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if step.MachineID == 0 {
		return nil, invalid("machine_id", "required")
	}
	if step.RunMinutes <= 0 {
		return nil, invalid("run_minutes", "must be positive")
	}
	if afterSequence < 0 {
		return nil, invalid("after_sequence", "must not be negative")
	}
	existing, err := c.db.ListPlanRowsForOrder(orderID)
	if err != nil {
		return nil, err
	}
	if afterSequence > len(existing) {
		return nil, invalid("after_sequence", "beyond the last step")
	}

	row := &store.PlanRow{
		OrderID:           orderID,
		StationID:         step.StationID,
		MachineID:         step.MachineID,
		SetupMinutes:      step.SetupMinutes,
		RunMinutes:        step.RunMinutes,
		ChangeoverMinutes: step.ChangeoverMinutes,
		TotalQty:          order.Quantity,
	}
	row.PlannedEnd = row.PlannedStart.Add(row.Duration())
	if err := c.db.InsertPlanRowAfter(row, afterSequence); err != nil {
		return nil, err
	}
	if err := c.rechain(orderID); err != nil {
		return nil, err
	}
	return c.db.GetPlanRow(row.ID)
}

// RemoveStep deletes a routing step, keeping the order's last row in place.
func (c *Commander) RemoveStep(planRowID int64) error {
	row, err := c.db.GetPlanRow(planRowID)
	if err != nil {
		return err
	}
	if err := c.db.RemovePlanRow(planRowID); err != nil {
		return err
	}
	if c.progress != nil {
		c.progress.Forget(planRowID)
	}
	return c.rechain(row.OrderID)
}

// UpdateStep patches a step and rechains the rows after it.
func (c *Commander) UpdateStep(planRowID int64, patch *store.PlanRowPatch) (*store.PlanRow, error) {
	row, err := c.db.UpdatePlanRow(planRowID, patch)
	if err != nil {
		return nil, err
	}
	if err := c.rechain(row.OrderID); err != nil {
		return nil, err
	}
	return c.db.GetPlanRow(planRowID)
}

// rechain reschedules an order's rows back to back from the first row's
// planned start and persists the new times in one transaction.
func (c *Commander) rechain(orderID int64) error {
	order, err := c.db.GetOrder(orderID)
	if err != nil {
		return err
	}
	fallback := c.planner.DayStart(order.DueDate)
	return c.db.RechainPlanRows(orderID, func(rows []*store.PlanRow) {
		start := rows[0].PlannedStart
		if start.IsZero() {
			start = fallback
		}
		routing.ChainFrom(rows, start)
	})
}

// SetMachineStatus updates a machine's operating status with a reason,
// logging the change for history views.
func (c *Commander) SetMachineStatus(machineID int64, status, reason string) error {
	if !store.ValidMachineStatus(status) {
		return invalid("status", "unknown machine status")
	}
	machine, err := c.db.GetMachine(machineID)
	if err != nil {
		return err
	}
	if err := c.db.SetMachineStatus(machineID, status, reason); err != nil {
		return err
	}
	c.emitter.EmitMachineStatusChanged(machineID, machine.Status, status, reason)
	return nil
}
