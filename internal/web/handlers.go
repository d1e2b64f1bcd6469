package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/med-x/opsportal/internal/session"
	"github.com/med-x/opsportal/internal/view"
	"github.com/med-x/opsportal/pkg/types"
)

// loginRequest is the body of POST /api/login.
type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// createRequest is the body of POST /api/tasks.
type createRequest struct {
	Title       string `json:"task"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	DueDate     string `json:"due_date"`
}

// saveRequest is the body of POST /api/tasks/save.
type saveRequest struct {
	Edits []session.Edit `json:"edits"`
}

// taskRow is one dashboard table row.
type taskRow struct {
	Position    int    `json:"position"`
	Title       string `json:"task"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	AssignedBy  string `json:"assigned_by"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	Overdue     bool   `json:"overdue"`
}

// tasksResponse is the body of GET /api/tasks.
type tasksResponse struct {
	User       types.Identity `json:"user"`
	View       string         `json:"view"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
	Tasks      []taskRow      `json:"tasks"`
	Stats      view.Stats     `json:"stats"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login body")
		return
	}
	// Proxy headers win over the body when both are present.
	if email := r.Header.Get(headerAuthEmail); email != "" {
		req.Email = email
		req.Name = r.Header.Get(headerAuthName)
	}

	id, live, err := s.openSession(req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrMissingEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrDomainNotAllowed):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	setSessionCookie(w, id)
	writeJSON(w, http.StatusOK, live.sess.User())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.closeSession(c.Value)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	live, ok := s.sessionFor(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	live.mu.Lock()
	user := live.sess.User()
	live.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

// parseFilter reads the filter query parameters shared by /api/tasks.
func parseFilter(r *http.Request) view.Filter {
	q := r.URL.Query()
	var statuses []string
	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	return view.Filter{
		Statuses:    statuses,
		Range:       q.Get("range"),
		From:        q.Get("from"),
		To:          q.Get("to"),
		OverdueOnly: q.Get("overdue") == "true",
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	live, ok := s.sessionFor(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	all, err := live.sess.Load(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	mode := r.URL.Query().Get("view")
	if mode == "" {
		mode = view.ModeAssignedToMe
	}
	mine := view.ForUser(all, live.sess.User().Email, mode)
	stats := view.Compute(mine)

	filter := parseFilter(r)
	filtered := view.Apply(mine, filter)
	view.SortNewestFirst(filtered)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageRows, totalPages := view.Paginate(filtered, page, view.RowsPerPage)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	rows := make([]taskRow, 0, len(pageRows))
	now := filter.Now
	for _, t := range pageRows {
		pos := taskPosition(all, t)
		rows = append(rows, taskRow{
			Position:    pos,
			Title:       t.Title,
			Description: t.Description,
			AssignedTo:  t.AssignedTo,
			AssignedBy:  t.AssignedBy,
			DueDate:     t.DueDate,
			Status:      t.Status,
			CreatedAt:   t.CreatedAt,
			Overdue:     view.IsOverdue(t, nowOrToday(now)),
		})
	}

	writeJSON(w, http.StatusOK, tasksResponse{
		User:       live.sess.User(),
		View:       mode,
		Page:       page,
		TotalPages: totalPages,
		Total:      len(filtered),
		Tasks:      rows,
		Stats:      stats,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	live, ok := s.sessionFor(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task body")
		return
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	if _, err := live.sess.Load(r.Context(), false); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	pos, t, err := live.sess.Create(r.Context(), req.Title, req.Description, req.AssignedTo, req.DueDate)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrEmptyTitle), errors.Is(err, types.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"position": pos,
		"task":     t,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	live, ok := s.sessionFor(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid save body")
		return
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	outcome, err := live.sess.Reconcile(r.Context(), req.Edits)
	if err != nil {
		if errors.Is(err, types.ErrNotLoaded) {
			writeError(w, http.StatusConflict, "task table not loaded; call /api/tasks first")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	live, ok := s.sessionFor(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	tasks, err := live.sess.Load(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rows": len(tasks)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	live, ok := s.sessionFor(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	all, err := live.sess.Load(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	email := live.sess.User().Email
	writeJSON(w, http.StatusOK, map[string]view.Stats{
		"assigned": view.Compute(view.ForUser(all, email, view.ModeAssignedByMe)),
		"mine":     view.Compute(view.ForUser(all, email, view.ModeAssignedToMe)),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

// taskPosition finds t's position in the loaded table by signature. The
// dashboard embeds it so edits carry a hint, though saves always re-resolve.
func taskPosition(all []types.Task, t types.Task) int {
	for i, cand := range all {
		if cand.CreatedAt == t.CreatedAt && cand.AssignedBy == t.AssignedBy && cand.Title == t.Title {
			return i
		}
	}
	return -1
}

// nowOrToday substitutes the current time for a zero anchor.
func nowOrToday(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
