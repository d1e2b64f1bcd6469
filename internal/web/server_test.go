package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med-x/opsportal/internal/auth"
	"github.com/med-x/opsportal/internal/memstore"
	"github.com/med-x/opsportal/internal/session"
	"github.com/med-x/opsportal/pkg/types"
)

// testPortal wires a server over an in-memory worksheet shared by every
// session it opens.
type testPortal struct {
	server *Server
	sheet  *memstore.Sheet
	http   *httptest.Server
}

func newTestPortal(t *testing.T, rows ...[]string) *testPortal {
	t.Helper()

	sheet := memstore.New(types.Columns)
	for _, r := range rows {
		require.NoError(t, sheet.Append(t.Context(), r))
	}

	verifier := auth.NewVerifier([]string{"med-x.ai"}, map[string]string{"kshukla@med-x.ai": "CEO"})
	factory := func(user types.Identity) (*session.Session, error) {
		sess := session.New(user, sheet, nil)
		sess.AssigneeRule = verifier.AllowedEmail
		return sess, nil
	}
	srv := NewServer(&Config{Logger: log.New(io.Discard, "", 0)}, verifier, factory)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testPortal{server: srv, sheet: sheet, http: ts}
}

// row builds a worksheet row in canonical column order.
func row(title, desc, to, by, due, status, created string) []string {
	return []string{title, desc, to, by, due, status, created}
}

// login posts to /api/login and returns the session cookie.
func (p *testPortal) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "name": "Test User"})
	resp, err := http.Post(p.http.URL+"/api/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// call sends an authenticated request and decodes the JSON response into out.
func (p *testPortal) call(t *testing.T, method, path string, cookie *http.Cookie, body any, out any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, p.http.URL+path, rdr)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestLoginLogoutLifecycle(t *testing.T) {
	p := newTestPortal(t)

	cookie := p.login(t, "alice@med-x.ai")
	assert.Equal(t, 1, p.server.SessionCount())

	var me types.Identity
	resp := p.call(t, http.MethodGet, "/api/me", cookie, nil, &me)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@med-x.ai", me.Email)

	resp = p.call(t, http.MethodPost, "/api/logout", cookie, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, p.server.SessionCount())

	resp = p.call(t, http.MethodGet, "/api/me", cookie, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsForeignDomain(t *testing.T) {
	p := newTestPortal(t)
	body, _ := json.Marshal(map[string]string{"email": "mallory@elsewhere.com"})
	resp, err := http.Post(p.http.URL+"/api/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, p.server.SessionCount())
}

func TestLoginRejectsMissingEmail(t *testing.T) {
	p := newTestPortal(t)
	resp, err := http.Post(p.http.URL+"/api/login", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProxyHeadersOpenSession(t *testing.T) {
	p := newTestPortal(t,
		row("write report", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-20T10:00:00Z"))

	req, err := http.NewRequest(http.MethodGet, p.http.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("X-Auth-Request-Email", "alice@med-x.ai")
	req.Header.Set("X-Auth-Request-User", "Alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, p.server.SessionCount())

	var got tasksResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "alice@med-x.ai", got.User.Email)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "write report", got.Tasks[0].Title)
}

func TestTasksViewsAndStats(t *testing.T) {
	p := newTestPortal(t,
		row("for me", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-20T10:00:00Z"),
		row("by me", "", "bob@med-x.ai", "alice@med-x.ai", "", "Completed", "2026-08-21T10:00:00Z"),
		row("unrelated", "", "bob@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-22T10:00:00Z"))
	cookie := p.login(t, "alice@med-x.ai")

	var mine tasksResponse
	resp := p.call(t, http.MethodGet, "/api/tasks?view=mine", cookie, nil, &mine)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, mine.Tasks, 1)
	assert.Equal(t, "for me", mine.Tasks[0].Title)
	assert.Equal(t, 1, mine.Stats.Pending)

	var assigned tasksResponse
	resp = p.call(t, http.MethodGet, "/api/tasks?view=assigned", cookie, nil, &assigned)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, assigned.Tasks, 1)
	assert.Equal(t, "by me", assigned.Tasks[0].Title)
	assert.Equal(t, 1, assigned.Stats.Completed)
	assert.Equal(t, 100, assigned.Stats.ProgressPercent)
}

func TestTasksStatusFilterAndSort(t *testing.T) {
	p := newTestPortal(t,
		row("older", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("newer", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-25T10:00:00Z"),
		row("done", "", "alice@med-x.ai", "boss@med-x.ai", "", "Completed", "2026-08-10T10:00:00Z"))
	cookie := p.login(t, "alice@med-x.ai")

	var got tasksResponse
	resp := p.call(t, http.MethodGet, "/api/tasks?view=mine&status=Pending", cookie, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "newer", got.Tasks[0].Title, "newest first")
	assert.Equal(t, "older", got.Tasks[1].Title)
	// Stats count the whole view, not the filtered subset.
	assert.Equal(t, 3, got.Stats.Total)
}

func TestTasksPagination(t *testing.T) {
	rows := make([][]string, 0, 12)
	for i := 0; i < 12; i++ {
		created := "2026-08-0" + string(rune('1'+i%9)) + "T10:00:00Z"
		rows = append(rows, row("t", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", created))
	}
	p := newTestPortal(t, rows...)
	cookie := p.login(t, "alice@med-x.ai")

	var page1 tasksResponse
	p.call(t, http.MethodGet, "/api/tasks?view=mine&page=1", cookie, nil, &page1)
	assert.Len(t, page1.Tasks, 10)
	assert.Equal(t, 2, page1.TotalPages)
	assert.Equal(t, 12, page1.Total)

	var page9 tasksResponse
	p.call(t, http.MethodGet, "/api/tasks?view=mine&page=9", cookie, nil, &page9)
	assert.Equal(t, 2, page9.Page, "out-of-range page clamps")
	assert.Len(t, page9.Tasks, 2)
}

func TestCreateTask(t *testing.T) {
	p := newTestPortal(t)
	cookie := p.login(t, "alice@med-x.ai")

	resp := p.call(t, http.MethodPost, "/api/tasks", cookie, map[string]string{
		"task":        "ship release",
		"description": "cut v2",
		"assigned_to": "bob@med-x.ai",
		"due_date":    "2026-09-15",
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, p.sheet.Len())

	// Empty titles and foreign assignees are rejected before any write.
	resp = p.call(t, http.MethodPost, "/api/tasks", cookie, map[string]string{"task": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = p.call(t, http.MethodPost, "/api/tasks", cookie, map[string]string{
		"task": "x", "assigned_to": "mallory@elsewhere.com",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, p.sheet.Len())
}

func TestSaveAppliesEdits(t *testing.T) {
	p := newTestPortal(t,
		row("keep", "", "bob@med-x.ai", "alice@med-x.ai", "", "Pending", "2026-08-20T10:00:00Z"),
		row("drop", "", "bob@med-x.ai", "alice@med-x.ai", "", "Pending", "2026-08-21T10:00:00Z"))
	cookie := p.login(t, "alice@med-x.ai")

	// Prime the session cache.
	p.call(t, http.MethodGet, "/api/tasks?view=assigned", cookie, nil, nil)

	var out session.Outcome
	resp := p.call(t, http.MethodPost, "/api/tasks/save", cookie, map[string]any{
		"edits": []map[string]any{
			{
				"created_at": "2026-08-20T10:00:00Z",
				"title":      "keep",
				"status":     "Completed",
				"assigned_to": "bob@med-x.ai",
			},
			{
				"created_at": "2026-08-21T10:00:00Z",
				"title":      "drop",
				"delete":     true,
			},
		},
	}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, out.Deleted)
	assert.Equal(t, 1, out.Updated)
	assert.Empty(t, out.Errors)

	rows, err := p.sheet.ReadAll(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "keep", rows[0]["task"])
	assert.Equal(t, "Completed", rows[0]["status"])
}

func TestSaveBeforeLoadConflicts(t *testing.T) {
	p := newTestPortal(t)
	cookie := p.login(t, "alice@med-x.ai")

	resp := p.call(t, http.MethodPost, "/api/tasks/save", cookie, map[string]any{
		"edits": []map[string]any{{"title": "x"}},
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReloadForcesFreshRead(t *testing.T) {
	p := newTestPortal(t,
		row("a", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-20T10:00:00Z"))
	cookie := p.login(t, "alice@med-x.ai")
	p.call(t, http.MethodGet, "/api/tasks", cookie, nil, nil)

	// A row lands behind the session's back; reload must pick it up.
	require.NoError(t, p.sheet.Append(t.Context(),
		row("b", "", "alice@med-x.ai", "boss@med-x.ai", "", "Pending", "2026-08-21T10:00:00Z")))

	var got map[string]int
	resp := p.call(t, http.MethodPost, "/api/reload", cookie, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, got["rows"])
}

func TestStatsEndpoint(t *testing.T) {
	p := newTestPortal(t,
		row("mine", "", "alice@med-x.ai", "boss@med-x.ai", "", "Completed", "2026-08-20T10:00:00Z"),
		row("theirs", "", "bob@med-x.ai", "alice@med-x.ai", "", "Pending", "2026-08-21T10:00:00Z"))
	cookie := p.login(t, "alice@med-x.ai")

	var got map[string]struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Pending   int `json:"pending"`
	}
	resp := p.call(t, http.MethodGet, "/api/stats", cookie, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, got["mine"].Total)
	assert.Equal(t, 1, got["mine"].Completed)
	assert.Equal(t, 1, got["assigned"].Pending)
}

func TestHealth(t *testing.T) {
	p := newTestPortal(t)
	resp, err := http.Get(p.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
