package engine

// commandEmitter translates Commander notifications into bus events.
type commandEmitter struct {
	bus *EventBus
}

func (a *commandEmitter) EmitOrderCreated(orderID int64, orderUUID, orderNumber string, steps int) {
	a.bus.Emit(Event{Type: EventOrderCreated, Payload: OrderCreatedEvent{
		OrderID: orderID, OrderUUID: orderUUID, OrderNumber: orderNumber, Steps: steps,
	}})
}

func (a *commandEmitter) EmitOrderReleased(orderID int64) {
	a.bus.Emit(Event{Type: EventOrderReleased, Payload: OrderReleasedEvent{OrderID: orderID}})
}

func (a *commandEmitter) EmitScheduleOverride(orderID int64, date, actor, reason string) {
	a.bus.Emit(Event{Type: EventScheduleOverride, Payload: ScheduleOverrideEvent{
		OrderID: orderID, Date: date, Actor: actor, Reason: reason,
	}})
}

func (a *commandEmitter) EmitStepStarted(planRowID, orderID int64, operator string) {
	a.bus.Emit(Event{Type: EventStepStarted, Payload: StepStartedEvent{
		PlanRowID: planRowID, OrderID: orderID, Operator: operator,
	}})
}

func (a *commandEmitter) EmitStepPaused(planRowID, orderID int64, operator, reason string) {
	a.bus.Emit(Event{Type: EventStepPaused, Payload: StepPausedEvent{
		PlanRowID: planRowID, OrderID: orderID, Operator: operator, Reason: reason,
	}})
}

func (a *commandEmitter) EmitStepCompleted(planRowID, orderID int64, operator string, actualQty, scrapQty int64) {
	a.bus.Emit(Event{Type: EventStepCompleted, Payload: StepCompletedEvent{
		PlanRowID: planRowID, OrderID: orderID, Operator: operator,
		ActualQty: actualQty, ScrapQty: scrapQty,
	}})
}

func (a *commandEmitter) EmitOrderCompleted(orderID int64, orderUUID, orderNumber string) {
	a.bus.Emit(Event{Type: EventOrderCompleted, Payload: OrderCompletedEvent{
		OrderID: orderID, OrderUUID: orderUUID, OrderNumber: orderNumber,
	}})
}

func (a *commandEmitter) EmitMachineStatusChanged(machineID int64, oldStatus, newStatus, reason string) {
	a.bus.Emit(Event{Type: EventMachineStatusChanged, Payload: MachineStatusChangedEvent{
		MachineID: machineID, OldStatus: oldStatus, NewStatus: newStatus, Reason: reason,
	}})
}
