package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/config"
	"github.com/mbolis/patrol-report/database"
	"github.com/mbolis/patrol-report/fields"
	"github.com/mbolis/patrol-report/form"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/report"
	"github.com/mbolis/patrol-report/routes/middlewares"
	"github.com/mbolis/patrol-report/schema"
	"github.com/mbolis/patrol-report/session"
	"github.com/mbolis/patrol-report/status"
	"github.com/mbolis/patrol-report/store"
	"github.com/mbolis/patrol-report/validation"
)

var now = time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T) (http.Handler, app.App) {
	t.Helper()

	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		// saves only happen on flush
		AutosaveDelay: time.Hour,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.SavePatroller(context.Background(), db, "patrol", "pw"))

	sc := schema.AccidentReport
	engine := validation.New(sc)
	renderer := form.New(sc, fields.NewRegistry())
	reports := report.NewRepository(store.NewSQLite(db), sc)
	sessions := session.NewManager(reports, engine, renderer, session.Options{
		AutosaveDelay: cfg.AutosaveDelay,
		Rules:         status.Rules,
		Now:           func() time.Time { return now },
	})
	t.Cleanup(func() { sessions.CloseAll() })

	a := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Schema:       sc,
		Engine:       engine,
		Form:         renderer,
		Reports:      reports,
		Sessions:     sessions,
		Now:          func() time.Time { return now },
	}
	return Wire(a), a
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func login(t *testing.T, h http.Handler) tokens {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/login", nil)
	req.SetBasicAuth("patrol", "pw")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tk tokens
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tk))
	require.NotEmpty(t, tk.AccessToken)
	return tk
}

type client struct {
	t       *testing.T
	h       http.Handler
	token   string
	session string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("content-type", "application/json")
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}
	if c.session != "" {
		req.Header.Set(SessionHeader, c.session)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type stateJSON struct {
	Session   string            `json:"session"`
	ReportID  string            `json:"reportId"`
	Data      map[string]any    `json:"data"`
	Errors    map[string]string `json:"errors"`
	Status    string            `json:"status"`
	Highlight []string          `json:"highlight"`
	Fields    map[string]string `json:"fields"`
	PanelHTML string            `json:"panelHtml"`
	Valid     *bool             `json:"valid"`
	Reminders []struct {
		ID string `json:"id"`
	} `json:"reminders"`
}

func TestLogin_WrongPassword(t *testing.T) {
	h, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/login", nil)
	req.SetBasicAuth("patrol", "nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("POST", "/api/login", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh(t *testing.T) {
	h, _ := newTestApp(t)
	tk := login(t, h)

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	req.Header.Set("authorization", "Refresh "+tk.RefreshToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[tokens](t, rec).AccessToken)

	req = httptest.NewRequest("POST", "/api/refresh", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	h, _ := newTestApp(t)
	c := &client{t: t, h: h}

	assert.Equal(t, http.StatusUnauthorized, c.do("GET", "/api/reports", nil).Code)
	c.token = "garbage"
	assert.Equal(t, http.StatusUnauthorized, c.do("POST", "/api/reports", nil).Code)
}

func TestReports_CRUD(t *testing.T) {
	h, _ := newTestApp(t)
	c := &client{t: t, h: h, token: login(t, h).AccessToken}

	rec := c.do("POST", "/api/reports", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	id := created["id"].(string)
	assert.Regexp(t, `^RPT-20240120-[0-9A-Z]{7}$`, id)
	assert.Equal(t, "in progress", created["status"])
	assert.Equal(t, "Chicopee Ski Club", created["location"])

	rec = c.do("GET", "/api/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]reportSummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Chicopee Ski Club", list[0].Location)
	assert.Greater(t, list[0].OverallPercentage, 0)

	rec = c.do("GET", "/api/reports/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[map[string]any](t, rec)["reportId"])

	assert.Equal(t, http.StatusNoContent, c.do("DELETE", "/api/reports/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/reports/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do("DELETE", "/api/reports/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/reports/not-an-id", nil).Code)
}

func TestGetSchema(t *testing.T) {
	h, _ := newTestApp(t)
	c := &client{t: t, h: h, token: login(t, h).AccessToken}

	rec := c.do("GET", "/api/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sc := decode[schema.Schema](t, rec)
	assert.Equal(t, schema.AccidentReport.Names(), sc.Names())
}

func TestFormSession(t *testing.T) {
	h, a := newTestApp(t)
	c := &client{t: t, h: h, token: login(t, h).AccessToken}

	id := decode[map[string]any](t, c.do("POST", "/api/reports", nil))["id"].(string)

	rec := c.do("POST", "/api/reports/"+id+"/session", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[stateJSON](t, rec)
	require.NotEmpty(t, st.Session)
	assert.Equal(t, id, st.ReportID)
	assert.Contains(t, st.PanelHTML, "Form Completion")
	assert.Len(t, st.Fields, len(schema.AccidentReport.Names()))

	events := "/api/reports/" + id + "/events"

	assert.Equal(t, http.StatusNotFound, c.do("POST", events, fields.Event{Name: "patientName", Action: fields.ActionChange, Value: "Jane"}).Code, "no session token")

	c.session = st.Session
	rec = c.do("POST", events, fields.Event{Name: "patientName", Action: fields.ActionChange, Value: "Jane"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decode[stateJSON](t, rec)
	assert.Equal(t, "Jane", st.Data["patientName"])
	assert.Contains(t, st.Fields["patientName"], `value="Jane"`)

	rec = c.do("POST", events, fields.Event{Name: "patientAge", Action: fields.ActionChange, Value: "12"})
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[stateJSON](t, rec)
	require.NotEmpty(t, st.Reminders)
	assert.Equal(t, "minor_patient", st.Reminders[0].ID)
	assert.Contains(t, st.PanelHTML, "parent/guardian")

	rec = c.do("POST", events, fields.Event{Name: "patientPhoneNumber", Action: fields.ActionChange, Value: "123"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.do("POST", events, fields.Event{Name: "patientPhoneNumber", Action: fields.ActionBlur})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[stateJSON](t, rec).Errors["patientPhoneNumber"])

	assert.Equal(t, http.StatusUnprocessableEntity, c.do("POST", events, fields.Event{Name: "nope", Action: fields.ActionChange}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, c.do("POST", events, fields.Event{Name: "reportId", Action: fields.ActionChange, Value: "x"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, c.do("POST", events, fields.Event{Name: "signature", Action: fields.ActionRelease, Value: "not an image"}).Code)
	assert.Equal(t, http.StatusBadRequest, c.do("POST", events, "not an event").Code)

	rec = c.do("POST", "/api/reports/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[stateJSON](t, rec)
	require.NotNil(t, st.Valid)
	assert.False(t, *st.Valid)
	assert.NotEmpty(t, st.Errors["patientPhoneNumber"])

	rec = c.do("PUT", "/api/reports/"+id+"/status", statusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[stateJSON](t, rec)
	assert.Equal(t, "completed", st.Status)
	assert.Contains(t, st.Highlight, "patientGender")
	assert.NotContains(t, st.Highlight, "patientName")
	assert.Contains(t, st.PanelHTML, "Still missing")

	assert.Equal(t, http.StatusUnprocessableEntity, c.do("PUT", "/api/reports/"+id+"/status", statusRequest{Status: "done"}).Code)

	// nothing saved yet: the autosave delay has not elapsed
	rep, err := a.Reports.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, rep.Data.String("patientName"))

	assert.Equal(t, http.StatusNoContent, c.do("POST", "/api/reports/"+id+"/close", nil).Code)
	assert.Equal(t, 0, a.Sessions.Len())

	rep, err = a.Reports.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", rep.Data.String("patientName"))
	assert.Equal(t, "completed", string(rep.Status))

	assert.Equal(t, http.StatusNotFound, c.do("POST", events, fields.Event{Name: "patientName", Action: fields.ActionBlur}).Code)
	assert.Equal(t, http.StatusNotFound, c.do("POST", "/api/reports/"+id+"/close", nil).Code)
}

func TestGetReport_FlushesOpenSession(t *testing.T) {
	h, _ := newTestApp(t)
	c := &client{t: t, h: h, token: login(t, h).AccessToken}

	id := decode[map[string]any](t, c.do("POST", "/api/reports", nil))["id"].(string)
	c.session = decode[stateJSON](t, c.do("POST", "/api/reports/"+id+"/session", nil)).Session
	require.Equal(t, http.StatusOK, c.do("POST", "/api/reports/"+id+"/events", fields.Event{Name: "bodyPart", Action: fields.ActionChange, Value: "Left knee"}).Code)

	rec := c.do("GET", "/api/reports/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Left knee", decode[map[string]any](t, rec)["bodyPart"])
}

func TestOpenSession_Shared(t *testing.T) {
	h, _ := newTestApp(t)
	c := &client{t: t, h: h, token: login(t, h).AccessToken}

	id := decode[map[string]any](t, c.do("POST", "/api/reports", nil))["id"].(string)
	first := decode[stateJSON](t, c.do("POST", "/api/reports/"+id+"/session", nil))
	second := decode[stateJSON](t, c.do("POST", "/api/reports/"+id+"/session", nil))
	assert.Equal(t, first.Session, second.Session)

	assert.Equal(t, http.StatusNotFound, c.do("POST", "/api/reports/RPT-20240120-AAAAAAA/session", nil).Code)
}

func TestDeleteReport_DiscardsSession(t *testing.T) {
	h, a := newTestApp(t)
	c := &client{t: t, h: h, token: login(t, h).AccessToken}

	id := decode[map[string]any](t, c.do("POST", "/api/reports", nil))["id"].(string)
	c.session = decode[stateJSON](t, c.do("POST", "/api/reports/"+id+"/session", nil)).Session
	require.Equal(t, http.StatusOK, c.do("POST", "/api/reports/"+id+"/events", fields.Event{Name: "bodyPart", Action: fields.ActionChange, Value: "Left knee"}).Code)

	assert.Equal(t, http.StatusNoContent, c.do("DELETE", "/api/reports/"+id, nil).Code)
	assert.Equal(t, 0, a.Sessions.Len())

	list, err := a.Reports.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "a pending save must not bring the report back")
}

func pageRequest(path string, tk tokens) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	if tk.AccessToken != "" {
		req.AddCookie(&http.Cookie{Name: middlewares.AccessTokenCookie, Value: tk.AccessToken})
	}
	if tk.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: middlewares.RefreshTokenCookie, Value: tk.RefreshToken})
	}
	return req
}

func TestPages_RedirectToLogin(t *testing.T) {
	h, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/reports", tokens{}))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?goto=%2Freports", rec.Header().Get("location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/login", tokens{}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="login-form"`)
}

func TestPages_RefreshExpiredAccess(t *testing.T) {
	h, _ := newTestApp(t)
	tk := login(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/reports", tokens{AccessToken: "expired", RefreshToken: tk.RefreshToken}))
	assert.Equal(t, http.StatusOK, rec.Code)

	var renewed bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middlewares.AccessTokenCookie && ck.Value != "" {
			renewed = true
		}
	}
	assert.True(t, renewed)
}

func TestPages(t *testing.T) {
	h, a := newTestApp(t)
	tk := login(t, h)

	rep, err := a.Reports.Create(context.Background(), now)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/", tk))
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/reports", tk))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), schema.AccidentReport.Title)
	assert.Contains(t, rec.Body.String(), `href="/reports/`+rep.ID+`"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/reports/"+rep.ID, tk))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-report="`+rep.ID+`"`)
	assert.Contains(t, body, `data-session="`)
	assert.Contains(t, body, "Form Completion")
	assert.Contains(t, body, "Patient Information")
	assert.Equal(t, 1, a.Sessions.Len())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/reports/"+rep.ID+"/print", tk))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Report #"+rep.ID)
	assert.Contains(t, rec.Body.String(), "Chicopee Ski Club")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, pageRequest("/reports/RPT-20240120-AAAAAAA", tk))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogout(t *testing.T) {
	h, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	}
}

func TestStaticAndMetrics(t *testing.T) {
	h, _ := newTestApp(t)

	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "patrol_http_request_duration_seconds")
}
