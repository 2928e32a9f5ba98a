package command

// Emitter bridges command-layer domain events to the engine. Commands never
// notify collaborators directly; everything observable goes through here.
type Emitter interface {
	EmitOrderCreated(orderID int64, orderUUID, orderNumber string, steps int)
	EmitOrderReleased(orderID int64)
	EmitScheduleOverride(orderID int64, date, actor, reason string)
	EmitStepStarted(planRowID, orderID int64, operator string)
	EmitStepPaused(planRowID, orderID int64, operator, reason string)
	EmitStepCompleted(planRowID, orderID int64, operator string, actualQty, scrapQty int64)
	EmitOrderCompleted(orderID int64, orderUUID, orderNumber string)
	EmitMachineStatusChanged(machineID int64, oldStatus, newStatus, reason string)
}

// NopEmitter is used by tests and tools that do not wire an engine.
type NopEmitter struct{}

func (NopEmitter) EmitOrderCreated(int64, string, string, int)             {}
func (NopEmitter) EmitOrderReleased(int64)                                 {}
func (NopEmitter) EmitScheduleOverride(int64, string, string, string)      {}
func (NopEmitter) EmitStepStarted(int64, int64, string)                    {}
func (NopEmitter) EmitStepPaused(int64, int64, string, string)             {}
func (NopEmitter) EmitStepCompleted(int64, int64, string, int64, int64)    {}
func (NopEmitter) EmitOrderCompleted(int64, string, string)                {}
func (NopEmitter) EmitMachineStatusChanged(int64, string, string, string)  {}
