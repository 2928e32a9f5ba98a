package www

import (
	"net/http"
	"strconv"
)

func (h *Handlers) apiListMachines(w http.ResponseWriter, r *http.Request) {
	var stationID int64
	if v := r.URL.Query().Get("station_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.jsonError(w, "invalid station_id", http.StatusBadRequest)
			return
		}
		stationID = id
	}
	machines, err := h.db.ListMachines(stationID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, machines)
}

// apiGetMachine is the machine detail view: the machine itself, whatever
// it is running right now, and its recent status history in one response.
func (h *Handlers) apiGetMachine(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	machine, err := h.db.GetMachine(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	job, err := h.progress.CurrentJobOn(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	logs, err := h.db.ListMachineStatusLog(id, 20)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{
		"machine":     machine,
		"current_job": job,
		"status_log":  logs,
	})
}

func (h *Handlers) apiWorklist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	items, err := h.progress.WorklistFor(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, items)
}

func (h *Handlers) apiCurrentJob(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetMachine(id); err != nil {
		h.fail(w, err)
		return
	}
	job, err := h.progress.CurrentJobOn(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, job)
}

func (h *Handlers) apiMachineLog(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetMachine(id); err != nil {
		h.fail(w, err)
		return
	}
	logs, err := h.db.ListMachineStatusLog(id, 100)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, logs)
}

func (h *Handlers) apiSetMachineStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.cmd.SetMachineStatus(id, req.Status, req.Reason); err != nil {
		h.fail(w, err)
		return
	}
	machine, err := h.db.GetMachine(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, machine)
}
