package www

import (
	"net/http"
	"strconv"
	"time"

	"pofcore/command"
	"pofcore/progress"
	"pofcore/store"
)

// orderView is what the planning board renders per order: the order row
// plus its derived progress summary.
type orderView struct {
	*store.SalesOrder
	Progress *progress.OrderProgress `json:"progress"`
}

func (h *Handlers) orderViews(orders []*store.SalesOrder) ([]*orderView, error) {
	views := make([]*orderView, 0, len(orders))
	for _, o := range orders {
		prog, err := h.progress.ProgressOf(o.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, &orderView{SalesOrder: o, Progress: prog})
	}
	return views, nil
}

type createOrderRequest struct {
	command.OrderInput
	DueDate string `json:"due_date"`
	// Urgent orders can jump the queue the moment they are scheduled.
	ActivateNow bool `json:"activate_now"`
}

func (h *Handlers) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DueDate != "" {
		due, err := time.ParseInLocation("2006-01-02", req.DueDate, time.Local)
		if err != nil {
			h.jsonError(w, "due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		req.OrderInput.DueDate = due
	}

	order, plan, err := h.cmd.CreateAndScheduleOrder(&req.OrderInput)
	if err != nil {
		h.fail(w, err)
		return
	}

	activated := false
	if req.ActivateNow {
		activated, err = h.cmd.ActivateImmediately(order.ID)
		if err != nil {
			h.fail(w, err)
			return
		}
	}

	h.jsonCreated(w, map[string]any{
		"order":     order,
		"plan":      plan,
		"activated": activated,
	})
}

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.OrderFilter{
		Priority: q.Get("priority"),
		Urgent:   q.Get("urgent") == "true",
		Released: q.Get("released") == "true",
		Limit:    100,
	}
	if v := q.Get("due_from"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			filter.DueFrom = t
		}
	}
	if v := q.Get("due_to"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			filter.DueTo = t
		}
	}

	// Planning-board shortcuts.
	if shortcut := q.Get("date"); shortcut == "today" || shortcut == "tomorrow" {
		now := time.Now()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
		if shortcut == "tomorrow" {
			day = day.AddDate(0, 0, 1)
		}
		filter.DueFrom, filter.DueTo = day, day.AddDate(0, 0, 1)
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	orders, err := h.db.ListOrders(filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	views, err := h.orderViews(orders)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, views)
}

func (h *Handlers) apiUrgentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.db.ListOrders(store.OrderFilter{Urgent: true, Limit: 100})
	if err != nil {
		h.fail(w, err)
		return
	}
	views, err := h.orderViews(orders)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, views)
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	order, err := h.db.GetOrder(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	plan, err := h.db.ListPlanRowsForOrder(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	prog, err := h.progress.ProgressOf(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{
		"order":    order,
		"plan":     plan,
		"progress": prog,
	})
}

func (h *Handlers) apiOrderPlan(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetOrder(id); err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.db.ListPlanRowsForOrder(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, rows)
}

func (h *Handlers) apiOrderProgress(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	prog, err := h.progress.ProgressOf(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, prog)
}

func (h *Handlers) apiActivateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	activated, err := h.cmd.ActivateImmediately(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]bool{"activated": activated})
}

func (h *Handlers) apiReleaseOrders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderIDs []int64 `json:"order_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.cmd.ReleaseOrders(req.OrderIDs); err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]int{"released": len(req.OrderIDs)})
}

func (h *Handlers) apiReleaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.cmd.ReleaseOrders([]int64{id}); err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]int{"released": 1})
}

func (h *Handlers) apiScheduleOrder(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.cmd.ScheduleForDate(id, req.Date, h.username(r), req.Reason); err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "scheduled"})
}

func (h *Handlers) apiAmendPriority(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		Priority string `json:"priority"`
		Reason   string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.cmd.AmendPriority(id, req.Priority, req.Reason); err != nil {
		h.fail(w, err)
		return
	}
	order, err := h.db.GetOrder(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, order)
}
