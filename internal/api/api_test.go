package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ALT-F4-LLC/ticketboard/internal/db"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, initialize bool) *db.Store {
	t.Helper()
	s, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	if initialize {
		require.NoError(t, s.Initialize(context.Background()))
	}
	return s
}

func newRouter(t *testing.T, store *db.Store) http.Handler {
	t.Helper()
	return NewRouter(zerolog.Nop(), store, Options{})
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createTicket(t *testing.T, h http.Handler, body map[string]any) model.Ticket {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/tickets", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[model.Ticket](t, rec)
}

func TestNilStoreAnswers503(t *testing.T) {
	h := newRouter(t, nil)

	for _, path := range []string{"/api/tickets", "/api/users", "/api/test-db"} {
		rec := do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		body := decodeBody[errorBody](t, rec)
		assert.Equal(t, "DATABASE_UNAVAILABLE", body.Code)
	}

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unconfigured", decodeBody[map[string]string](t, rec)["database"])
}

func TestTicketCRUD(t *testing.T) {
	h := newRouter(t, openStore(t, true))

	created := createTicket(t, h, map[string]any{
		"title": "Fix login", "description": "Broken", "labels": []string{"auth", "ui"},
	})
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.Equal(t, model.TypeTask, created.Type)
	assert.Equal(t, model.StatusTodo, created.Status)
	assert.Equal(t, model.SystemUserName, created.Reporter.Name)

	rec := do(t, h, http.MethodGet, "/api/tickets/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeBody[model.Ticket](t, rec).ID)

	rec = do(t, h, http.MethodPut, "/api/tickets/"+created.ID, map[string]any{
		"status": "IN_PROGRESS", "labels": []string{"ui"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[model.Ticket](t, rec)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.Equal(t, []string{"ui"}, updated.Labels)
	assert.Equal(t, "Fix login", updated.Title)

	rec = do(t, h, http.MethodGet, "/api/tickets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]model.Ticket](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"ui"}, list[0].Labels, "removed label stays removed on reload")

	rec = do(t, h, http.MethodDelete, "/api/tickets/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[successBody](t, rec).Success)

	rec = do(t, h, http.MethodGet, "/api/tickets/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[errorBody](t, rec).Code)
}

func TestCreateTicketValidation(t *testing.T) {
	h := newRouter(t, openStore(t, true))

	rec := do(t, h, http.MethodPost, "/api/tickets", map[string]any{"title": " ", "description": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", decodeBody[errorBody](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/tickets", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateVersionConflict(t *testing.T) {
	h := newRouter(t, openStore(t, true))
	created := createTicket(t, h, map[string]any{"title": "A", "description": "B"})

	rec := do(t, h, http.MethodPut, "/api/tickets/"+created.ID, map[string]any{"title": "B", "version": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/tickets/"+created.ID, map[string]any{"title": "C", "version": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeBody[errorBody](t, rec).Code)
}

func TestUsers(t *testing.T) {
	h := newRouter(t, openStore(t, true))

	rec := do(t, h, http.MethodPost, "/api/users", map[string]any{"name": "Zed", "email": "zed@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/api/users", map[string]any{"name": "Amy", "email": "amy@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users", map[string]any{"name": "Again", "email": "amy@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody[[]model.User](t, rec)
	require.Len(t, users, 2)
	assert.Equal(t, "Amy", users[0].Name)
}

func TestAttachmentsAndActivity(t *testing.T) {
	h := newRouter(t, openStore(t, true))
	created := createTicket(t, h, map[string]any{"title": "A", "description": "B"})
	base := "/api/tickets/" + created.ID

	rec := do(t, h, http.MethodPost, base+"/attachments",
		map[string]any{"name": "trace.log", "size": 4096, "type": "text/plain", "url": "https://files.example.com/trace.log"},
		actorHeader, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	att := decodeBody[model.Attachment](t, rec)

	rec = do(t, h, http.MethodGet, base, nil)
	tk := decodeBody[model.Ticket](t, rec)
	require.Len(t, tk.Attachments, 1)
	assert.Equal(t, int64(4096), tk.Attachments[0].Size)

	rec = do(t, h, http.MethodDelete, base+"/attachments/"+att.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodDelete, base+"/attachments/"+att.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, base+"/activity?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acts := decodeBody[[]model.Activity](t, rec)
	require.Len(t, acts, 3)
	var byAlice int
	for _, a := range acts {
		if a.ChangedBy == "alice" {
			byAlice++
		}
	}
	assert.Equal(t, 1, byAlice)

	rec = do(t, h, http.MethodGet, "/api/tickets/missing/activity", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupAndTestDB(t *testing.T) {
	h := newRouter(t, openStore(t, false))

	rec := do(t, h, http.MethodPost, "/api/setup-db", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	setup := decodeBody[setupResponse](t, rec)
	assert.True(t, setup.Success)
	assert.Equal(t, 1, setup.SchemaVersion)
	assert.Equal(t, 2, setup.Seeded.Tickets)

	rec = do(t, h, http.MethodGet, "/api/test-db", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[testDBResponse](t, rec)
	assert.Equal(t, "sqlite", res.Dialect)
	assert.Equal(t, 4, res.Counts.Users)
	assert.Equal(t, 2, res.Counts.Tickets)
}

func TestDriverErrorCodePassThrough(t *testing.T) {
	h := newRouter(t, openStore(t, false))

	rec := do(t, h, http.MethodGet, "/api/tickets", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(decodeBody[errorBody](t, rec).Code, "SQLITE_"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newRouter(t, openStore(t, true))
	do(t, h, http.MethodGet, "/api/tickets", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ticketboard_http_requests_total")
}

func TestRateLimit(t *testing.T) {
	h := NewRouter(zerolog.Nop(), nil, Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/healthz", nil).Code)
}

func TestRecovererReturnsJSON(t *testing.T) {
	h := Recoverer(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", decodeBody[errorBody](t, rec).Code)
}
