package messaging

import (
	"encoding/json"
	"errors"
	"log"

	"pofcore/command"
	"pofcore/store"
)

// machineStatusReport is what edge boxes publish on the status topic.
type machineStatusReport struct {
	MachineCode string `json:"machine_code"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// StatusConsumer feeds machine telemetry from the broker into the command
// layer, so a DOWN report from the shop floor moves through the same path as
// a supervisor clicking the dashboard.
type StatusConsumer struct {
	db  *store.DB
	cmd *command.Commander
}

func NewStatusConsumer(db *store.DB, cmd *command.Commander) *StatusConsumer {
	return &StatusConsumer{db: db, cmd: cmd}
}

// Start subscribes to the status topic. Safe to call with a nil client.
func (sc *StatusConsumer) Start(client Client, topic string) error {
	if client == nil {
		return nil
	}
	return client.Subscribe(topic, sc.handle)
}

func (sc *StatusConsumer) handle(topic string, payload []byte) {
	var report machineStatusReport

	// Edge firmware varies: some boxes wrap reports in the standard
	// envelope, older ones publish the bare report.
	if env, err := ParseEnvelope(payload); err == nil && len(env.Payload) > 0 {
		payload = env.Payload
	}
	if err := json.Unmarshal(payload, &report); err != nil {
		log.Printf("messaging: bad status report on %s: %v", topic, err)
		return
	}
	if report.MachineCode == "" || report.Status == "" {
		log.Printf("messaging: incomplete status report on %s", topic)
		return
	}

	machine, err := sc.db.GetMachineByCode(report.MachineCode)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("messaging: status report for unknown machine %s", report.MachineCode)
		return
	}
	if err != nil {
		log.Printf("messaging: lookup machine %s: %v", report.MachineCode, err)
		return
	}
	if machine.Status == report.Status {
		return
	}
	if err := sc.cmd.SetMachineStatus(machine.ID, report.Status, report.Reason); err != nil {
		log.Printf("messaging: apply status %s for machine %s: %v", report.Status, report.MachineCode, err)
	}
}
