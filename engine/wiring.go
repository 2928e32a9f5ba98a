package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pofcore/progress"
	"pofcore/store"
)

const (
	machineDownSLA = 2 * time.Hour
	blockedJobSLA  = 4 * time.Hour
)

// wire installs the standing subscriptions. Order matters only for the audit
// trail, which should see every event first.
func (e *Engine) wire() {
	e.bus.Subscribe(e.auditEvent)
	e.bus.SubscribeTypes(e.refreshStatus,
		EventStepStarted, EventStepPaused, EventStepCompleted)
	e.bus.SubscribeTypes(e.trackExceptions, EventMachineStatusChanged)
	e.bus.SubscribeTypes(e.notifyOrderCompleted, EventOrderCompleted)
}

func (e *Engine) auditEvent(evt Event) {
	db := e.cfg.DB
	switch p := evt.Payload.(type) {
	case OrderCreatedEvent:
		db.AppendAudit("order", p.OrderID, "created", "", fmt.Sprintf("%s (%d steps)", p.OrderNumber, p.Steps), SystemActor)
	case OrderReleasedEvent:
		db.AppendAudit("order", p.OrderID, "released", "", "", SystemActor)
	case ScheduleOverrideEvent:
		db.AppendAudit("order", p.OrderID, progress.ScheduleOverrideAction, "", p.Date, p.Actor)
	case StepStartedEvent:
		db.AppendAudit("plan_row", p.PlanRowID, "step_started", "", "", p.Operator)
	case StepPausedEvent:
		db.AppendAudit("plan_row", p.PlanRowID, "step_paused", "", p.Reason, p.Operator)
	case StepCompletedEvent:
		db.AppendAudit("plan_row", p.PlanRowID, "step_completed", "",
			fmt.Sprintf("qty=%d scrap=%d", p.ActualQty, p.ScrapQty), p.Operator)
	case OrderCompletedEvent:
		db.AppendAudit("order", p.OrderID, "completed", "", p.OrderNumber, SystemActor)
	case MachineStatusChangedEvent:
		db.AppendAudit("machine", p.MachineID, "status_changed", p.OldStatus, p.NewStatus, SystemActor)
	}
}

// SystemActor tags audit entries written by the engine itself.
const SystemActor = "engine"

func (e *Engine) refreshStatus(evt Event) {
	var planRowID int64
	switch p := evt.Payload.(type) {
	case StepStartedEvent:
		planRowID = p.PlanRowID
	case StepPausedEvent:
		planRowID = p.PlanRowID
	case StepCompletedEvent:
		planRowID = p.PlanRowID
	default:
		return
	}
	if _, err := e.cfg.Progress.Refresh(planRowID); err != nil {
		log.Printf("engine: refresh status for row %d: %v", planRowID, err)
	}
}

// trackExceptions opens an exception when a machine goes DOWN or BLOCKED and
// resolves its open exceptions when it leaves those states.
func (e *Engine) trackExceptions(evt Event) {
	p, ok := evt.Payload.(MachineStatusChangedEvent)
	if !ok {
		return
	}
	db := e.cfg.DB
	switch p.NewStatus {
	case store.MachineDown:
		if _, err := db.OpenException(store.ExcMachineDown, "HIGH", p.MachineID, time.Now().Add(machineDownSLA)); err != nil {
			log.Printf("engine: open exception for machine %d: %v", p.MachineID, err)
		}
	case store.MachineBlocked:
		if _, err := db.OpenException(store.ExcBlockedJob, "MEDIUM", p.MachineID, time.Now().Add(blockedJobSLA)); err != nil {
			log.Printf("engine: open exception for machine %d: %v", p.MachineID, err)
		}
	default:
		if p.OldStatus == store.MachineDown || p.OldStatus == store.MachineBlocked {
			if err := db.ResolveExceptions(p.MachineID); err != nil {
				log.Printf("engine: resolve exceptions for machine %d: %v", p.MachineID, err)
			}
		}
	}
}

// notifyOrderCompleted stages the completion message in the outbox for the
// drainer, and fires the webhook off the command path.
func (e *Engine) notifyOrderCompleted(evt Event) {
	p, ok := evt.Payload.(OrderCompletedEvent)
	if !ok {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"factory_id":   e.cfg.FactoryID,
		"order_id":     p.OrderID,
		"order_uuid":   p.OrderUUID,
		"order_number": p.OrderNumber,
		"completed_at": evt.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("engine: marshal completion for order %d: %v", p.OrderID, err)
		return
	}
	topic := e.cfg.TopicPrefix + ".orders.completed"
	if err := e.cfg.DB.EnqueueOutbox(topic, payload, "order_completed"); err != nil {
		log.Printf("engine: enqueue completion for order %d: %v", p.OrderID, err)
	}
	if e.cfg.Notifier != nil {
		go func() {
			if err := e.cfg.Notifier.OrderCompleted(p.OrderNumber, payload); err != nil {
				log.Printf("engine: webhook for order %s: %v", p.OrderNumber, err)
			}
		}()
	}
}
