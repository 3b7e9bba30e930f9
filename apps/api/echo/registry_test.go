package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core/registry"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/testutil"
)

func Test_registryApi_statusAndReload(t *testing.T) {
	app := setup(t)
	token := app.token(t)
	testutil.CreateStudent(t, app.students, "S001", "Alice Mbuyi", "2")
	testutil.CreateFee(t, app.fees, "2", "T1", "2024", "150")

	app.db.Fail(assert.AnError)
	runHTTPTests(t, app, []httpTest{
		{
			name: "status (uninitialized)", path: "/v1/status", wantCode: http.StatusOK,
			wantData: marchallObj(t, StatusResponse{State: registry.Uninitialized}),
		},
		{
			name: "reload (init failure)", method: http.MethodPost, path: "/v1/reload", token: token,
			wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, errNotLoaded),
		},
		{
			name: "status (error)", path: "/v1/status", wantCode: http.StatusOK,
			wantData: []byte(`{"state": "error", "students": 0, "fees": 0}`),
		},
	})

	app.db.Fail(nil)
	runHTTPTests(t, app, []httpTest{
		{
			name: "reload (retry init)", method: http.MethodPost, path: "/v1/reload", token: token,
			wantCode: http.StatusOK, wantData: []byte(`{"state": "ready", "students": 1, "fees": 1}`),
		},
		{
			name: "reload (unknown collection)", method: http.MethodPost, path: "/v1/reload?collection=lol", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"collection": "unknown collection"}`),
		},
	})

	// a store change nobody was told about
	app.reg.Close()
	testutil.CreateStudent(t, app.students, "S002", "Bob Ilunga", "1")

	runHTTPTests(t, app, []httpTest{
		{
			name: "reload fees", method: http.MethodPost, path: "/v1/reload?collection=fees", token: token,
			wantCode: http.StatusOK, wantData: []byte(`{"state": "ready", "students": 1, "fees": 1}`),
		},
		{
			name: "reload students", method: http.MethodPost, path: "/v1/reload?collection=students", token: token,
			wantCode: http.StatusOK, wantData: []byte(`{"state": "ready", "students": 2, "fees": 1}`),
		},
	})

	app.db.Fail(assert.AnError)
	runHTTPTests(t, app, []httpTest{
		{
			name: "reload (failure)", method: http.MethodPost, path: "/v1/reload", token: token,
			wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, httpErr{Error: "storage unavailable"}),
		},
		{
			name: "status keeps last snapshot", path: "/v1/status", wantCode: http.StatusOK,
			wantData: []byte(`{"state": "ready", "students": 2, "fees": 1}`),
		},
	})
	app.db.Fail(nil)

	// exactly one notification for the failed initialization
	var initFailures int
	for _, n := range app.notes.Recent(0) {
		if n.Message == "Error loading data. Please refresh the page." {
			initFailures++
		}
	}
	assert.Equal(t, 2, initFailures, "one for the failed init, one for the failed reload")
}

func Test_registryApi_reloadClosed(t *testing.T) {
	app := setup(t)
	app.reg.Close()

	runHTTPTests(t, app, []httpTest{
		{
			name: "closed registry shuts the server down", method: http.MethodPost, path: "/v1/reload", token: app.token(t),
			wantCode: http.StatusInternalServerError, wantData: marchallObj(t, httpErr{Error: "Internal Server Error"}),
		},
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&app.shutdowns))
}

func Test_registryApi_summary(t *testing.T) {
	app := setup(t)
	token := app.token(t)
	testutil.CreateStudent(t, app.students, "S001", "Alice", "1",
		student.Payment{ID: "p1", Amount: decimal.NewFromInt(100), Term: "T1", Year: "2024"})
	testutil.CreateStudent(t, app.students, "S002", "Bob", "1")
	testutil.CreateFee(t, app.fees, "1", "T1", "2024", "150")
	app.initialize(t)

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing params", path: "/v1/summary", token: token, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"term": "this field is required", "year": "this field is required"}`),
		},
		{
			name: "summary", path: "/v1/summary?term=T1&year=2024", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, app.reg.Summary("T1", "2024")),
		},
	})

	sum := app.reg.Summary("T1", "2024")
	assert.Equal(t, "300", sum.Expected.String())
	assert.Equal(t, "200", sum.Outstanding.String())
}

func Test_registryApi_notifications(t *testing.T) {
	app := setup(t)
	token := app.token(t)
	app.initialize(t)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/students/NOPE", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications?limit=1", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Student deleted successfully!"`)
	assert.Contains(t, rec.Body.String(), `"color":"#4CAF50"`)
}

func Test_registryApi_events(t *testing.T) {
	app := setup(t)
	app.initialize(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, rec := newRequest(http.MethodGet, "/v1/events")
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		app.ServeHTTP(rec, req)
		close(done)
	}()

	// let the handler subscribe, then change the students snapshot
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, app.reg.Reload(context.Background(), registry.Students))
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Body.String(), "event: snapshot\ndata: students\n\n"), rec.Body.String())
}

func Test_metrics(t *testing.T) {
	app := setup(t)
	app.initialize(t)
	require.NoError(t, app.reg.Reload(context.Background(), registry.Fees))

	req, rec := newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bursar_registry_reloads_total{collection="fees",result="ok"} 1`)
}
