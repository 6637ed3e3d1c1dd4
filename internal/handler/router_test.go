package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/service"
	"github.com/noah-isme/sma-portal-sync/pkg/config"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryKV) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrKeyNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryKV) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

const promotionCompletion = 62

func remoteAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/grades", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"student_id":2,"student_name":"Budi","grades":[{"subject_id":1,"grade":74},{"subject_id":2,"grade":76}]},
			{"student_id":1,"student_name":"Adi","grades":[{"subject_id":1,"grade":99},{"subject_id":2,"grade":null}]}
		]}`))
	})
	mux.HandleFunc("/grades/bulk", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/promotion/report", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("section_id") == "3" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"grades incomplete","completion_percentage":62}`))
			return
		}
		_, _ = w.Write([]byte(`{"completion_percentage":100,"data":[
			{"student_id":1,"student_name":"Adi","final_average":98.5,"attendance_percentage":97}
		]}`))
	})
	mux.HandleFunc("/promotion/report/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-official"))
	})
	mux.HandleFunc("/attendance/monthly", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"1":{"student_name":"Adi","monthly_summary":{"present_days":18,"absent_days":0,"half_days":2}}}}`))
	})
	mux.HandleFunc("/session-check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	return mux
}

func buildPortalRouter(t *testing.T) (*gin.Engine, service.Workspaces) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(remoteAPI())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Timezone: "UTC",
		Remote:   config.RemoteConfig{BaseURL: srv.URL, ReadTimeout: time.Second, ExportTimeout: time.Second},
		Session:  config.SessionConfig{Secret: "router-secret"},
	}
	kv := &memoryKV{data: map[string][]byte{}}
	workspaces := service.Workspaces{}
	for _, role := range []models.Role{models.RoleTeacher, models.RoleSuperAdmin} {
		w, err := service.NewWorkspace(service.WorkspaceParams{Role: role, Config: cfg, KV: kv})
		require.NoError(t, err)
		t.Cleanup(w.Close)
		workspaces[role] = w
	}

	r := gin.New()
	RegisterRoutes(r, RouterDeps{
		Workspaces: workspaces,
		Metrics:    service.NewMetricsService(),
		Readiness: map[string]ReadinessCheck{
			"storage": func(context.Context) error { return nil },
		},
	})
	return r, workspaces
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSelectionRoutes(t *testing.T) {
	r, workspaces := buildPortalRouter(t)

	rec := performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"academic_year_id":"1","quarter_id":"2","section_id":"4"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4), workspaces[models.RoleTeacher].Selection.Current().SectionID.Int64)
	assert.True(t, workspaces[models.RoleSuperAdmin].Selection.Current().Empty())

	rec = performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"section_id":"-3"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(4), workspaces[models.RoleTeacher].Selection.Current().SectionID.Int64)

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/selection", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"section_id":4`)

	rec = performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"quarter_id":""}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, workspaces[models.RoleTeacher].Selection.Current().QuarterID.Valid)
	assert.Equal(t, int64(4), workspaces[models.RoleTeacher].Selection.Current().SectionID.Int64)

	rec = performRequest(r, httptest.NewRequest(http.MethodDelete, "/api/v1/teacher/selection", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, workspaces[models.RoleTeacher].Selection.Current().Empty())
}

func TestUnknownRoleIsNotFound(t *testing.T) {
	r, _ := buildPortalRouter(t)
	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/parent/selection", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradesRoute(t *testing.T) {
	r, _ := buildPortalRouter(t)
	performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"academic_year_id":"1","quarter_id":"2","section_id":"4"}`))

	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/grades", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var snap struct {
		Loaded bool `json:"loaded"`
		Data   struct {
			Students []struct {
				StudentID int64  `json:"student_id"`
				Status    string `json:"status"`
			} `json:"students"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.True(t, snap.Loaded)
	require.Len(t, snap.Data.Students, 2)
	assert.Equal(t, "Incomplete", snap.Data.Students[0].Status)
	assert.Equal(t, "Passing", snap.Data.Students[1].Status)

	rec = performRequest(r, jsonRequest(http.MethodPost, "/api/v1/teacher/grades/bulk",
		`{"items":[{"student_id":1,"subject_id":2,"grade":97},{"student_id":2,"subject_id":1,"grade":150}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(r, jsonRequest(http.MethodPost, "/api/v1/teacher/grades/bulk",
		`{"items":[{"student_id":1,"subject_id":2,"grade":97}]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"With Highest Honors"`)
}

func TestPromotionRouteSurfacesCompletion(t *testing.T) {
	r, workspaces := buildPortalRouter(t)
	performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"academic_year_id":"1","quarter_id":"2","section_id":"3"}`))

	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/promotion", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.CodeIncompleteData, env.Error.Code)
	assert.Equal(t, float64(promotionCompletion), env.Error.Details["completion_percentage"])

	snap := workspaces[models.RoleTeacher].Promotion.Snapshot()
	assert.Equal(t, models.PromotionUnclassified, snap.Data.State)
	assert.Empty(t, snap.Data.Records)
}

func TestPromotionExportRoute(t *testing.T) {
	r, _ := buildPortalRouter(t)
	performRequest(r, jsonRequest(http.MethodPut, "/api/v1/superadmin/selection", `{"academic_year_id":"1","quarter_id":"2","section_id":"9"}`))

	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/superadmin/promotion/export?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="promotion_roster_`))
	assert.Contains(t, rec.Body.String(), "With Highest Honors")

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/superadmin/promotion/export?format=xls", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/superadmin/promotion/export?format=pdf&source=remote", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-official", rec.Body.String())

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/superadmin/promotion/export?source=cloud", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceRoutes(t *testing.T) {
	r, _ := buildPortalRouter(t)
	performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"academic_year_id":"1","quarter_id":"2","section_id":"4"}`))

	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/attendance/monthly?month=3&year=2024", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, false, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"rate":95`)

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/attendance/monthly?month=3&year=2024", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeEnvelope(t, rec).Meta["cache_hit"])

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/attendance/monthly?month=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(r, jsonRequest(http.MethodPost, "/api/v1/teacher/attendance",
		`{"items":[{"student_id":1,"date":"2024-03-04","status":"sick"}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/attendance/quarterly?months=2024-13", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionRoutesResetRole(t *testing.T) {
	r, workspaces := buildPortalRouter(t)
	teacher := workspaces[models.RoleTeacher]
	performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/selection", `{"academic_year_id":"1","quarter_id":"2","section_id":"4"}`))

	rec := performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/session", `{"token":"opaque"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)

	rec = performRequest(r, jsonRequest(http.MethodPut, "/api/v1/teacher/session", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(r, httptest.NewRequest(http.MethodDelete, "/api/v1/teacher/session", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, teacher.Session.Token())
	assert.True(t, teacher.Selection.Current().Empty())

	rec = performRequest(r, httptest.NewRequest(http.MethodDelete, "/api/v1/teacher/session", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNotificationRoutes(t *testing.T) {
	r, workspaces := buildPortalRouter(t)
	workspaces[models.RoleTeacher].Notifier.Error("grades", errors.New("remote down"))

	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/teacher/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "remote down")

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/superadmin/notifications", nil))
	assert.NotContains(t, rec.Body.String(), "remote down")

	rec = performRequest(r, httptest.NewRequest(http.MethodDelete, "/api/v1/teacher/notifications", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, workspaces[models.RoleTeacher].Notifier.Recent())
}

func TestHealthAndReadiness(t *testing.T) {
	r, _ := buildPortalRouter(t)
	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"ok"`)

	rec = performRequest(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessReportsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{"redis": func(context.Context) error { return errors.New("down") }})
	r.GET("/ready", h.Ready)
	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
