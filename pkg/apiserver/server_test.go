package apiserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/model"
	"github.com/propgraph/propgraph/pkg/store/gormstore/storetest"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	server *Server
	db     *gorm.DB
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storetest.New(t)
	cfg := &config.Config{
		Auth:   config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, Issuer: "propgraph"},
		Import: config.ImportConfig{BatchSize: 100, MaxFileSize: 1 << 20, UploadDir: t.TempDir(), RatePerMinute: 100},
		Query:  config.QueryConfig{DefaultLimit: 10, MaxLimit: 100},
	}
	server := NewServer(store.DB(), cfg, zap.NewNop(), nil)
	token, err := server.Tokens().Issue("user-1")
	require.NoError(t, err)
	return &testServer{t: t, server: server, db: store.DB(), token: token}
}

func (ts *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	return ts.serve(req)
}

func (ts *testServer) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	recorder := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(recorder, req)
	var resp envelope
	if recorder.Body.Len() > 0 {
		require.NoError(ts.t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	}
	return recorder, resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	recorder := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())

	recorder = httptest.NewRecorder()
	ts.server.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "propgraph_http_request_duration_seconds")
}

func TestAPIAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.serve(httptest.NewRequest(http.MethodGet, "/api/v1/master-developments/abc", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "missing authorization", resp.Message)
}

func TestMasterDevelopmentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(http.MethodPost, "/api/v1/master-developments", map[string]interface{}{
		"country":            "UAE",
		"city":               "Dubai",
		"developmentName":    "Alpha",
		"locationQuality":    "High",
		"buaAreaSqFt":        100,
		"facilitiesAreaSqFt": 50,
		"amentiesAreaSqFt":   25,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)

	var created model.MasterDevelopment
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, 175.0, created.TotalAreaSqFt)
	assert.Equal(t, "user-1", created.UserID)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rec, resp := ts.do(http.MethodPost, "/api/v1/master-developments", map[string]interface{}{
			"country": "UAE", "city": "Dubai", "developmentName": "alpha", "locationQuality": "High",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("invalid enum rejected", func(t *testing.T) {
		rec, resp := ts.do(http.MethodPost, "/api/v1/master-developments", map[string]interface{}{
			"country": "UAE", "city": "Dubai", "developmentName": "Gamma", "locationQuality": "Superb",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Message, "locationQuality")
	})

	t.Run("get", func(t *testing.T) {
		rec, resp := ts.do(http.MethodGet, "/api/v1/master-developments/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got model.MasterDevelopment
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, "Alpha", got.DevelopmentName)
	})

	t.Run("get bad id", func(t *testing.T) {
		rec, _ := ts.do(http.MethodGet, "/api/v1/master-developments/not-an-id", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch rederives total", func(t *testing.T) {
		rec, resp := ts.do(http.MethodPatch, "/api/v1/master-developments/"+created.ID.String(), map[string]interface{}{
			"buaAreaSqFt": 200,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated model.MasterDevelopment
		require.NoError(t, json.Unmarshal(resp.Data, &updated))
		assert.Equal(t, 275.0, updated.TotalAreaSqFt)
		assert.Equal(t, "user-1", updated.UserID)
	})

	t.Run("report", func(t *testing.T) {
		rec, resp := ts.do(http.MethodGet, "/api/v1/master-developments/"+created.ID.String()+"/report", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, string(resp.Data), `"developmentName":"Alpha"`)
	})

	t.Run("delete then missing", func(t *testing.T) {
		rec, _ := ts.do(http.MethodDelete, "/api/v1/master-developments/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, resp := ts.do(http.MethodGet, "/api/v1/master-developments/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.False(t, resp.Success)
	})
}

func TestListEndpoint(t *testing.T) {
	ts := newTestServer(t)
	for i, area := range []float64{50, 150, 250} {
		storetest.MasterDevelopment(t, ts.db, []string{"A", "B", "C"}[i], func(m *model.MasterDevelopment) {
			m.BUAAreaSqFt = area
		})
	}

	rec, resp := ts.do(http.MethodPost, "/api/v1/master-developments/list", map[string]interface{}{
		"filter": map[string]interface{}{"buaAreaSqFt": map[string]interface{}{"min": 100, "max": 200}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		Data       []model.MasterDevelopment `json:"data"`
		TotalCount int64                     `json:"totalCount"`
		PageNumber int                       `json:"pageNumber"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "B", page.Data[0].DevelopmentName)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 1, page.PageNumber)

	t.Run("empty body uses defaults", func(t *testing.T) {
		rec, resp := ts.do(http.MethodPost, "/api/v1/master-developments/list", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		assert.Len(t, page.Data, 3)
	})
}

func TestAssignmentEndpoints(t *testing.T) {
	ts := newTestServer(t)
	master := storetest.MasterDevelopment(t, ts.db, "Alpha")
	customer := storetest.Customer(t, ts.db, "Jane")
	body := map[string]interface{}{
		"entityId":   master.ID.String(),
		"customerId": customer.ID.String(),
		"entityKind": "masterDevelopment",
	}

	rec, _ := ts.do(http.MethodPost, "/api/v1/assignments", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored model.Customer
	require.NoError(t, ts.db.First(&stored, "id = ?", customer.ID).Error)
	assert.True(t, stored.HasAssignment(master.ID, model.KindMasterDevelopment))

	rec, _ = ts.do(http.MethodDelete, "/api/v1/master-developments/"+master.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, ts.db.First(&stored, "id = ?", customer.ID).Error)
	assert.Empty(t, stored.Assigned)

	t.Run("bad kind", func(t *testing.T) {
		body["entityKind"] = "project"
		rec, _ := ts.do(http.MethodPost, "/api/v1/assignments", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing entity", func(t *testing.T) {
		body["entityKind"] = "masterDevelopment"
		rec, _ := ts.do(http.MethodPost, "/api/v1/assignments", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func uploadRequest(t *testing.T, path, filename string, content []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestImportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Country", "City", "Development Name", "Location Quality"},
		{"UAE", "Dubai", "Alpha", "High"},
		{"UAE", "Dubai", "Beta", ""},
		{"UAE", "Dubai", "Alpha", "Low"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rec, resp := ts.serve(uploadRequest(t, "/api/v1/master-developments/import", "masters.xlsx", buf.Bytes(), ts.token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)

	var report struct {
		TotalEntries            int `json:"totalEntries"`
		InsertedEntries         int `json:"insertedEntries"`
		SkippedInvalidEntries   int `json:"skippedInvalidEntries"`
		SkippedDuplicateEntries int `json:"skippedDuplicateEntries"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, 1, report.InsertedEntries)
	assert.Equal(t, 1, report.SkippedInvalidEntries)
	assert.Equal(t, 1, report.SkippedDuplicateEntries)

	t.Run("unsupported extension", func(t *testing.T) {
		rec, resp := ts.serve(uploadRequest(t, "/api/v1/master-developments/import", "masters.pdf", []byte("%PDF"), ts.token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Message, "unsupported file type")
	})

	t.Run("unreadable workbook", func(t *testing.T) {
		rec, _ := ts.serve(uploadRequest(t, "/api/v1/master-developments/import", "masters.xlsx", []byte("garbage"), ts.token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("csv", func(t *testing.T) {
		content := []byte("Name,Contact Number\nJane,+971500000001\n")
		rec, resp := ts.serve(uploadRequest(t, "/api/v1/customers/import", "customers.csv", content, ts.token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(resp.Data, &report))
		assert.Equal(t, 1, report.InsertedEntries)
	})
}
