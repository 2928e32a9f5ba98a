package www

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pofcore/command"
	"pofcore/config"
	"pofcore/progress"
	"pofcore/report"
	"pofcore/routing"
	"pofcore/store"
)

func testServer(t *testing.T) (*httptest.Server, *store.DB) {
	t.Helper()
	cfg := config.Default()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	planner := routing.NewPlanner(&cfg.Policy)
	prog := progress.NewManager(db, nil)
	cmd := command.New(db, planner, prog, nil)
	gen := report.NewGenerator(db, prog)
	handlers := NewHandlers(cfg, db, cmd, prog, gen, nil)

	srv := httptest.NewServer(handlers.Router())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	srv.Client().Jar = jar
	return srv, db
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number":  "SO-2026-0105-1234",
		"customer_name": "Siam Food Co., Ltd",
		"quantity":      1000,
		"due_date":      "2026-02-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var created struct {
		Order *store.SalesOrder `json:"order"`
		Plan  []*store.PlanRow  `json:"plan"`
	}
	decodeBody(t, resp, &created)
	require.NotNil(t, created.Order)
	assert.Len(t, created.Plan, 4)

	resp = doJSON(t, srv.Client(), http.MethodGet, fmt.Sprintf("%s/api/orders/%d", srv.URL, created.Order.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderDetailAndUrgentList(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number":  "SO-URG-1",
		"quantity":      500,
		"priority":      "URGENT",
		"urgent_reason": "line stoppage at customer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Order *store.SalesOrder `json:"order"`
	}
	decodeBody(t, resp, &created)

	resp = doJSON(t, srv.Client(), http.MethodGet, fmt.Sprintf("%s/api/orders/%d", srv.URL, created.Order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Order    *store.SalesOrder       `json:"order"`
		Plan     []*store.PlanRow        `json:"plan"`
		Progress *progress.OrderProgress `json:"progress"`
	}
	decodeBody(t, resp, &detail)
	assert.Len(t, detail.Plan, 4)
	require.NotNil(t, detail.Progress)
	assert.Equal(t, 4, detail.Progress.Total)

	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/orders/urgent", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var urgent []struct {
		OrderNumber string                  `json:"order_number"`
		Progress    *progress.OrderProgress `json:"progress"`
	}
	decodeBody(t, resp, &urgent)
	require.Len(t, urgent, 1)
	assert.Equal(t, "SO-URG-1", urgent[0].OrderNumber)
	require.NotNil(t, urgent[0].Progress)

	// Non-urgent orders stay off the urgent list.
	resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number": "SO-URG-2", "quantity": 100,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/orders/urgent", nil)
	decodeBody(t, resp, &urgent)
	assert.Len(t, urgent, 1)
}

func TestStationOrdersShowsReleasedWork(t *testing.T) {
	srv, db := testServer(t)

	// The default routing's first step lands on station 1.
	station := &store.Station{Code: "S1", Name: "Slitting / Rewinding"}
	require.NoError(t, db.CreateStation(station))

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number": "SO-ST-1", "quantity": 200,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Order *store.SalesOrder `json:"order"`
		Plan  []*store.PlanRow  `json:"plan"`
	}
	decodeBody(t, resp, &created)
	stationID := created.Plan[0].StationID

	url := fmt.Sprintf("%s/api/stations/%d/orders", srv.URL, stationID)
	resp = doJSON(t, srv.Client(), http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var work []struct {
		Order *store.SalesOrder `json:"order"`
	}
	decodeBody(t, resp, &work)
	assert.Empty(t, work, "unreleased orders stay off the station board")

	require.NoError(t, db.ReleaseOrders([]int64{created.Order.ID}))
	resp = doJSON(t, srv.Client(), http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &work)
	require.Len(t, work, 1)
	assert.Equal(t, "SO-ST-1", work[0].Order.OrderNumber)
}

func TestCreateOrderValidationMapsTo400(t *testing.T) {
	srv, _ := testServer(t)
	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"quantity": 10,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownOrderMapsTo404(t *testing.T) {
	srv, _ := testServer(t)
	resp := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/orders/999", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDoubleCompleteMapsTo409(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number": "SO-409-1", "quantity": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Plan []*store.PlanRow `json:"plan"`
	}
	decodeBody(t, resp, &created)
	rowURL := fmt.Sprintf("%s/api/plan/%d/complete", srv.URL, created.Plan[0].ID)

	resp = doJSON(t, srv.Client(), http.MethodPost, rowURL, map[string]any{
		"operator": "somchai", "actual_qty": 100,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv.Client(), http.MethodPost, rowURL, map[string]any{
		"operator": "somchai", "actual_qty": 100,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSupervisorMutationsRequireSession(t *testing.T) {
	srv, db := testServer(t)
	require.NoError(t, db.CreateAdminUser("supervisor", "secret123"))

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders/release", map[string]any{
		"order_ids": []int64{1},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Authenticate; the cookie jar carries the session from here on.
	resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/login", map[string]any{
		"username": "supervisor", "password": "secret123",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	create := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number": "SO-REL-1", "quantity": 10,
	})
	var created struct {
		Order *store.SalesOrder `json:"order"`
	}
	decodeBody(t, create, &created)

	resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders/release", map[string]any{
		"order_ids": []int64{created.Order.ID},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := db.GetOrder(created.Order.ID)
	require.NoError(t, err)
	assert.True(t, got.Released)
}

func TestLoginCookieWorksOverPlainHTTP(t *testing.T) {
	srv, db := testServer(t)
	require.NoError(t, db.CreateAdminUser("supervisor", "secret123"))

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/login", map[string]any{
		"username": "supervisor", "password": "secret123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "pofcore-session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.False(t, cookie.Secure, "an HTTP client must get the session cookie back")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestBadLoginRejected(t *testing.T) {
	srv, db := testServer(t)
	require.NoError(t, db.CreateAdminUser("supervisor", "secret123"))

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/login", map[string]any{
		"username": "supervisor", "password": "nope",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestKPIsAndStationsEndpoints(t *testing.T) {
	srv, db := testServer(t)
	station := &store.Station{Code: "S1", Name: "Slitting / Rewinding"}
	require.NoError(t, db.CreateStation(station))
	require.NoError(t, db.CreateMachine(&store.Machine{
		StationID: station.ID, Code: "SL-01", StandardSpeed: 100, Status: store.MachineRunning,
	}))

	resp := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/kpis", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var kpis progress.FleetKPIs
	decodeBody(t, resp, &kpis)
	assert.Equal(t, 100, kpis.MachineLoad)

	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/stations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health []*progress.StationHealth
	decodeBody(t, resp, &health)
	require.Len(t, health, 1)
	assert.Equal(t, progress.HealthHealthy, health[0].Status)
}

func TestProductionReportEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"order_number": "SO-XLSX-1", "quantity": 100,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/reports/production.xlsx", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
}
