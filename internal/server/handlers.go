package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/recur/internal/app"
	"github.com/idilsaglam/recur/internal/history"
	"github.com/idilsaglam/recur/internal/model"
)

const maxBodySize = 64 << 10 // 64KB

// taskView is a task plus its countdown at response time.
type taskView struct {
	model.Task
	Every       string    `json:"every"`
	DueAt       time.Time `json:"dueAt"`
	RemainingMs int64     `json:"remainingMs"`
	Remaining   string    `json:"remaining"`
	Overdue     bool      `json:"overdue"`
}

// taskInput accepts either "every" ("30m", "2h") or frequency + timeUnit.
type taskInput struct {
	Title     string `json:"title"`
	Every     string `json:"every"`
	Frequency int    `json:"frequency"`
	TimeUnit  string `json:"timeUnit"`
}

func (s *Server) view(t model.Task) taskView {
	r := s.sess.Remaining(t)
	return taskView{
		Task:        t,
		Every:       model.FormatInterval(t.Frequency, t.TimeUnit),
		DueAt:       t.DueAt(),
		RemainingMs: r.Ms,
		Remaining:   r.String(),
		Overdue:     r.Overdue,
	}
}

func (s *Server) handleAsset(c *gin.Context) {
	e, err := readAsset(c.Request.URL.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Data(e.Status, e.ContentType, e.Body)
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks := s.sess.Tasks()
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, s.view(t))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": views, "count": len(views)})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var in taskInput
	if !bindJSON(c, &in) {
		return
	}
	freq, unit, err := in.interval(0, model.Hour)
	if err != nil {
		fail(c, err)
		return
	}
	t, err := s.sess.CreateTask(c.Request.Context(), in.Title, freq, unit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.view(t))
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	var in taskInput
	if !bindJSON(c, &in) {
		return
	}
	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = t.Title
	}
	freq, unit, err := in.interval(t.Frequency, t.TimeUnit)
	if err != nil {
		fail(c, err)
		return
	}
	t, err = s.sess.EditTask(c.Request.Context(), t.ID, title, freq, unit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(t))
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	if _, err := s.sess.DeleteTask(c.Request.Context(), t.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	ev, err := s.sess.CompleteTask(c.Request.Context(), t.ID)
	if err != nil {
		fail(c, err)
		return
	}
	t, _ = s.sess.Find(t.ID)
	c.JSON(http.StatusOK, gin.H{"event": ev, "task": s.view(t)})
}

func (s *Server) handleHistory(c *gin.Context) {
	h := s.sess.History()
	limit := len(h)
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{
		"completions": history.Recent(h, limit),
		"total":       len(h),
	})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.sess.ClearHistory(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStats(c *gin.Context) {
	st := s.sess.Stats()
	c.JSON(http.StatusOK, gin.H{
		"stats":       st,
		"currentText": st.CurrentStreakLabel(),
		"bestText":    st.BestStreakLabel(),
	})
}

// lookup resolves :id by exact id only; indexes are a CLI convenience.
func (s *Server) lookup(c *gin.Context) (model.Task, bool) {
	id := c.Param("id")
	for _, t := range s.sess.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	return model.Task{}, false
}

func bindJSON(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// interval resolves the requested interval, falling back to the given
// frequency and unit for fields left empty.
func (in taskInput) interval(freq int, unit model.TimeUnit) (int, model.TimeUnit, error) {
	if in.Every != "" {
		return model.ParseInterval(in.Every)
	}
	if in.Frequency != 0 {
		freq = in.Frequency
	}
	if in.TimeUnit != "" {
		u, err := model.ParseTimeUnit(in.TimeUnit)
		if err != nil {
			return 0, "", err
		}
		unit = u
	}
	return freq, unit, nil
}

// fail maps session errors onto status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrEmptyTitle),
		errors.Is(err, model.ErrBadFrequency),
		errors.Is(err, model.ErrBadUnit),
		errors.Is(err, model.ErrBadInterval):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
