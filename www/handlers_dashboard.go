package www

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pofcore/progress"
	"pofcore/store"
)

func (h *Handlers) apiStations(w http.ResponseWriter, r *http.Request) {
	health, err := h.progress.StationHealthAll()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, health)
}

func (h *Handlers) apiKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.progress.Fleet()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, kpis)
}

// apiStationOrders lists the released orders with work planned at a station,
// each with that station's plan rows and their live execution state.
func (h *Handlers) apiStationOrders(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetStation(id); err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.db.ListPlanRowsForStation(id)
	if err != nil {
		h.fail(w, err)
		return
	}

	type stationRow struct {
		*store.PlanRow
		Execution *progress.Status `json:"execution"`
	}
	type stationOrder struct {
		Order *store.SalesOrder `json:"order"`
		Rows  []*stationRow     `json:"rows"`
	}

	byOrder := make(map[int64]*stationOrder)
	var out []*stationOrder
	for _, row := range rows {
		entry, seen := byOrder[row.OrderID]
		if !seen {
			order, err := h.db.GetOrder(row.OrderID)
			if err != nil {
				h.fail(w, err)
				return
			}
			if order.Released {
				entry = &stationOrder{Order: order}
				out = append(out, entry)
			}
			byOrder[row.OrderID] = entry
		}
		if entry == nil {
			continue
		}
		st, err := h.progress.StatusOf(row.ID)
		if err != nil {
			h.fail(w, err)
			return
		}
		entry.Rows = append(entry.Rows, &stationRow{PlanRow: row, Execution: st})
	}
	h.jsonOK(w, out)
}

func (h *Handlers) apiExceptions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.ExcOpen
	}
	if status == "all" {
		status = ""
	}
	excs, err := h.db.ListExceptions(status, 100)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonOK(w, excs)
}

func (h *Handlers) apiAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType := q.Get("entity_type")
	entityID, err := strconv.ParseInt(q.Get("entity_id"), 10, 64)
	if entityType == "" || err != nil {
		h.jsonError(w, "entity_type and entity_id required", http.StatusBadRequest)
		return
	}
	entries, listErr := h.db.ListAudit(entityType, entityID, 100)
	if listErr != nil {
		h.fail(w, listErr)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiProductionReport(w http.ResponseWriter, r *http.Request) {
	data, err := h.report.ProductionReport(store.OrderFilter{})
	if err != nil {
		h.fail(w, err)
		return
	}
	filename := fmt.Sprintf("production-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := h.db.Ping() == nil
	messagingOK := h.msg != nil && h.msg.IsConnected()
	h.jsonOK(w, map[string]any{
		"status":    "ok",
		"database":  dbOK,
		"messaging": messagingOK,
	})
}
