package www

import (
	"net/http"

	"pofcore/routing"
	"pofcore/store"
)

func (h *Handlers) apiStartStep(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	var req struct {
		Operator string `json:"operator"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ev, err := h.cmd.StartStep(rowID, req.Operator)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, ev)
}

func (h *Handlers) apiPauseStep(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	var req struct {
		Operator string `json:"operator"`
		Reason   string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ev, err := h.cmd.PauseStep(rowID, req.Operator, req.Reason)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, ev)
}

func (h *Handlers) apiCompleteStep(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	var req struct {
		Operator  string `json:"operator"`
		ActualQty int64  `json:"actual_qty"`
		ScrapQty  int64  `json:"scrap_qty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ev, err := h.cmd.CompleteStep(rowID, req.Operator, req.ActualQty, req.ScrapQty)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, ev)
}

func (h *Handlers) apiRowStatus(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetPlanRow(rowID); err != nil {
		h.fail(w, err)
		return
	}
	st, err := h.progress.StatusOf(rowID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, st)
}

func (h *Handlers) apiRowEvents(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetPlanRow(rowID); err != nil {
		h.fail(w, err)
		return
	}
	events, err := h.db.EventsFor(rowID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, events)
}

func (h *Handlers) apiAddStep(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		AfterSequence int `json:"after_sequence"`
		routing.StepInput
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	row, err := h.cmd.AddStep(id, req.AfterSequence, req.StepInput)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonCreated(w, row)
}

func (h *Handlers) apiUpdateStep(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	var patch store.PlanRowPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	row, err := h.cmd.UpdateStep(rowID, &patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, row)
}

func (h *Handlers) apiRemoveStep(w http.ResponseWriter, r *http.Request) {
	rowID, err := urlID(r, "rowID")
	if err != nil {
		h.jsonError(w, "invalid plan row id", http.StatusBadRequest)
		return
	}
	if err := h.cmd.RemoveStep(rowID); err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "removed"})
}
