package engine

const (
	EventOrderCreated EventType = iota + 1
	EventOrderReleased
	EventScheduleOverride
	EventStepStarted
	EventStepPaused
	EventStepCompleted
	EventOrderCompleted
	EventMachineStatusChanged
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type OrderCreatedEvent struct {
	OrderID     int64
	OrderUUID   string
	OrderNumber string
	Steps       int
}

type OrderReleasedEvent struct {
	OrderID int64
}

type ScheduleOverrideEvent struct {
	OrderID int64
	Date    string
	Actor   string
	Reason  string
}

type StepStartedEvent struct {
	PlanRowID int64
	OrderID   int64
	Operator  string
}

type StepPausedEvent struct {
	PlanRowID int64
	OrderID   int64
	Operator  string
	Reason    string
}

type StepCompletedEvent struct {
	PlanRowID int64
	OrderID   int64
	Operator  string
	ActualQty int64
	ScrapQty  int64
}

type OrderCompletedEvent struct {
	OrderID     int64
	OrderUUID   string
	OrderNumber string
}

type MachineStatusChangedEvent struct {
	MachineID int64
	OldStatus string
	NewStatus string
	Reason    string
}

type ConnectionEvent struct {
	Detail string
}
