// Package engine ties the core together: it owns the in-process event bus,
// routes domain events into the audit trail, the status cache, the exception
// queue and the notification outbox.
package engine

import (
	"pofcore/command"
	"pofcore/notify"
	"pofcore/progress"
	"pofcore/store"
)

type Config struct {
	FactoryID   string
	TopicPrefix string

	DB       *store.DB
	Progress *progress.Manager
	Notifier *notify.Client
}

type Engine struct {
	cfg Config
	bus *EventBus
}

func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg, bus: NewEventBus()}
	e.wire()
	return e
}

func (e *Engine) Bus() *EventBus {
	return e.bus
}

// Emitter returns the command-layer adapter so Commander calls land on the bus.
func (e *Engine) Emitter() command.Emitter {
	return &commandEmitter{bus: e.bus}
}
