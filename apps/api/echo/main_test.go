package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/registry"
	"github.com/trezcool/bursar/core/student"
	metricsvc "github.com/trezcool/bursar/services/metrics"
	notifysvc "github.com/trezcool/bursar/services/notify"
	dummydb "github.com/trezcool/bursar/storage/database/dummy"
	"github.com/trezcool/bursar/testutil"
)

const (
	adminUsername = "bursar"
	adminPassword = "s3cr3t-Pa55"

	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errNotLoaded    = httpErr{Error: "data not loaded yet"}
	errNotFound     = httpErr{Error: "not found"}

	adminPasswordHash string
)

func init() {
	var err error
	if adminPasswordHash, err = core.HashPassword(adminPassword); err != nil {
		panic(err)
	}
}

type testApp struct {
	Server
	conf     *core.Config
	db       *dummydb.DB
	students student.Repository
	fees     fee.Repository
	reg      *registry.Registry
	notes    *notifysvc.Feed
	logger   *testutil.Logger

	shutdowns int32
}

func setup(t *testing.T) *testApp {
	conf := &core.Config{AppName: "Bursar", SecretKey: "test-secret", TestMode: true}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.AdminUsername = adminUsername
	conf.Server.AdminPasswordHash = adminPasswordHash

	db, err := dummydb.Open()
	require.NoError(t, err)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)

	promReg := prometheus.NewRegistry()
	metrics, err := metricsvc.New(promReg)
	require.NoError(t, err)

	app := &testApp{
		conf:     conf,
		db:       db,
		students: dummydb.NewStudentRepository(db),
		fees:     dummydb.NewFeeRepository(db),
		notes:    notifysvc.NewFeed(10),
		logger:   &testutil.Logger{},
	}
	app.reg = registry.New(registry.Options{
		Students: app.students,
		Fees:     app.fees,
		Feed:     db.Feed(),
		Logger:   app.logger,
		Notifier: app.notes,
		Validate: validate,
		Metrics:  metrics,
	})
	t.Cleanup(app.reg.Close)

	app.Server = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Registry:       app.reg,
		Notifications:  app.notes,
		Logger:         app.logger,
		Validate:       validate,
		Translator:     translator,
		Gatherer:       promReg,
		SignalShutdown: func() { atomic.AddInt32(&app.shutdowns, 1) },
	})
	return app
}

func (app *testApp) token(t *testing.T) string {
	token, err := GenerateToken(app.conf, NewClaims(app.conf, adminUsername))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (app *testApp) initialize(t *testing.T) {
	require.NoError(t, app.reg.Initialize(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, isList := j1.([]interface{}); !isList {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
