package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/skilltracker/internal/auth"
	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/progress"
	"github.com/emilianohg/skilltracker/internal/service"
	"github.com/emilianohg/skilltracker/internal/testutil/teststore"
)

// tokenAuth maps fixed tokens to user ids.
type tokenAuth map[string]string

func (a tokenAuth) ResolveCallerIdentity(credential string) (string, error) {
	if id, ok := a[credential]; ok {
		return id, nil
	}
	return "", auth.ErrUnauthorized
}

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.New(teststore.New(t), progress.NewAggregator(nil), nil)
	authn := tokenAuth{aliceToken: "alice", bobToken: "bob"}
	return NewServer(svc, authn, Options{APIPrefix: "/api", Logger: discardLogger()})
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SkillTracker API is running...", w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"", "unknown"} {
		w := do(t, s, http.MethodGet, "/api/goals", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, decode[map[string]string](t, w), "error")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("Authorization", "Token "+aliceToken)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthenticatorEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtAuth := auth.NewJWTAuthenticator("secret")
	svc := service.New(teststore.New(t), progress.NewAggregator(nil), nil)
	s := NewServer(svc, jwtAuth, Options{APIPrefix: "api", Logger: discardLogger()})

	token, err := jwtAuth.IssueToken("carol", time.Hour)
	require.NoError(t, err)

	w := do(t, s, http.MethodPost, "/api/goals", token, gin.H{"title": "Learn Go"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "carol", decode[models.Goal](t, w).OwnerID)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodOptions, "/api/goals", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestGoalLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/goals", aliceToken, gin.H{
		"title": "Learn Go", "description": "idioms", "category": "career",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	goal := decode[models.Goal](t, w)
	assert.Equal(t, "alice", goal.OwnerID)
	assert.Equal(t, 0, goal.Progress)

	raw := decode[map[string]any](t, w)
	for _, key := range []string{"_id", "ownerId", "title", "description", "category", "progress", "createdAt"} {
		assert.Contains(t, raw, key)
	}

	w = do(t, s, http.MethodGet, "/api/goals", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Goal](t, w), 1)

	w = do(t, s, http.MethodGet, "/api/goals", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Goal](t, w))

	w = do(t, s, http.MethodPut, "/api/goals/"+goal.ID, aliceToken, gin.H{"title": "Master Go", "progress": 90})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Goal](t, w)
	assert.Equal(t, "Master Go", updated.Title)
	assert.Equal(t, "idioms", updated.Description)
	assert.Equal(t, 0, updated.Progress)

	w = do(t, s, http.MethodGet, "/api/goals/"+goal.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/goals/"+goal.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/goals/"+goal.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/goals", aliceToken, gin.H{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/tasks", aliceToken, gin.H{"title": "orphan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/subtasks", aliceToken, gin.H{"title": "orphan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/goals", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressRollUpOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/goals", aliceToken, gin.H{"title": "Learn Go"})
	require.Equal(t, http.StatusCreated, w.Code)
	goal := decode[models.Goal](t, w)

	w = do(t, s, http.MethodPost, "/api/tasks", aliceToken, gin.H{"title": "Tour", "goalId": goal.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[models.Task](t, w)
	assert.Equal(t, goal.ID, task.GoalID)

	w = do(t, s, http.MethodPost, "/api/tasks", aliceToken, gin.H{"title": "Book", "goalId": goal.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var subs []models.Subtask
	for _, title := range []string{"basics", "methods"} {
		w = do(t, s, http.MethodPost, "/api/subtasks", aliceToken, gin.H{"title": title, "taskId": task.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		subs = append(subs, decode[models.Subtask](t, w))
	}

	w = do(t, s, http.MethodPatch, "/api/subtasks/"+subs[0].ID+"/toggle", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	toggled := decode[struct {
		Message      string         `json:"message"`
		Subtask      models.Subtask `json:"subtask"`
		TaskProgress int            `json:"taskProgress"`
		GoalProgress int            `json:"goalProgress"`
	}](t, w)
	assert.Equal(t, "Progress updated", toggled.Message)
	assert.True(t, toggled.Subtask.IsCompleted)
	assert.Equal(t, 50, toggled.TaskProgress)
	assert.Equal(t, 25, toggled.GoalProgress)

	w = do(t, s, http.MethodGet, "/api/goals/"+goal.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.GoalDetail](t, w)
	assert.Equal(t, 25, detail.Goal.Progress)
	require.Len(t, detail.Tasks, 2)
	assert.Len(t, detail.Tasks[0].Subtasks, 2)

	w = do(t, s, http.MethodGet, "/api/tasks/goal/"+goal.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Task](t, w), 2)

	w = do(t, s, http.MethodPatch, "/api/subtasks/"+subs[1].ID, aliceToken, gin.H{"title": "interfaces"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "interfaces", decode[models.Subtask](t, w).Title)

	w = do(t, s, http.MethodDelete, "/api/subtasks/"+subs[1].ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/tasks/"+task.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.TaskWithSubtasks](t, w)
	assert.Equal(t, 100, got.Progress)
	assert.True(t, got.IsCompleted)
	assert.Len(t, got.Subtasks, 1)

	w = do(t, s, http.MethodPut, "/api/tasks/"+task.ID, aliceToken, gin.H{"title": "Go tour"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Go tour", decode[models.Task](t, w).Title)

	w = do(t, s, http.MethodDelete, "/api/tasks/"+task.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/subtasks/"+subs[0].ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/goals/"+goal.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.GoalDetail](t, w).Goal.Progress)
}

func TestForeignTaskIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/goals", aliceToken, gin.H{"title": "Learn Go"})
	goal := decode[models.Goal](t, w)
	w = do(t, s, http.MethodPost, "/api/tasks", aliceToken, gin.H{"title": "Tour", "goalId": goal.ID})
	task := decode[models.Task](t, w)

	requests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/tasks/" + task.ID, nil},
		{http.MethodPut, "/api/tasks/" + task.ID, gin.H{"title": "mine"}},
		{http.MethodDelete, "/api/tasks/" + task.ID, nil},
		{http.MethodPost, "/api/tasks", gin.H{"title": "x", "goalId": goal.ID}},
		{http.MethodPost, "/api/subtasks", gin.H{"title": "x", "taskId": task.ID}},
	}
	for _, r := range requests {
		w := do(t, s, r.method, r.path, bobToken, r.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
	}

	w = do(t, s, http.MethodGet, "/api/tasks/missing", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// failingTracker fails every call it overrides with a storage error.
type failingTracker struct {
	Tracker
}

func (failingTracker) ListGoals(context.Context, string) ([]models.Goal, error) {
	return nil, errors.New("disk I/O error")
}

func TestStorageFailureIsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(failingTracker{}, tokenAuth{aliceToken: "alice"}, Options{APIPrefix: "/api", Logger: discardLogger()})

	w := do(t, s, http.MethodGet, "/api/goals", aliceToken, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode[map[string]string](t, w)["error"])
}

func TestEntitiesKeyedByUnderscoreID(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/goals", aliceToken, gin.H{"title": "Learn Go"})
	goal := decode[map[string]any](t, w)
	w = do(t, s, http.MethodPost, "/api/tasks", aliceToken, gin.H{"title": "Tour", "goalId": goal["_id"]})
	task := decode[map[string]any](t, w)
	w = do(t, s, http.MethodPost, "/api/subtasks", aliceToken, gin.H{"title": "basics", "taskId": task["_id"]})
	sub := decode[map[string]any](t, w)

	for _, entity := range []map[string]any{goal, task, sub} {
		assert.NotEmpty(t, entity["_id"])
		assert.NotContains(t, entity, "id")
	}

	w = do(t, s, http.MethodGet, "/api/goals/"+goal["_id"].(string), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[struct {
		Tasks []struct {
			ID       string `json:"_id"`
			Subtasks []struct {
				ID string `json:"_id"`
			} `json:"subtasks"`
		} `json:"tasks"`
	}](t, w)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, task["_id"], detail.Tasks[0].ID)
	require.Len(t, detail.Tasks[0].Subtasks, 1)
	assert.Equal(t, sub["_id"], detail.Tasks[0].Subtasks[0].ID)

	w = do(t, s, http.MethodPatch, "/api/subtasks/"+sub["_id"].(string)+"/toggle", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[struct {
		Subtask map[string]any `json:"subtask"`
	}](t, w)
	assert.Equal(t, sub["_id"], toggled.Subtask["_id"])
}
