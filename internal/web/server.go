package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilianohg/skilltracker/internal/auth"
	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/service"
)

// Tracker is the hierarchy surface the handlers call. *service.Service
// satisfies it.
type Tracker interface {
	CreateGoal(ctx context.Context, owner, title, description, category string) (*models.Goal, error)
	ListGoals(ctx context.Context, owner string) ([]models.Goal, error)
	GoalDetail(ctx context.Context, owner, goalID string) (*models.GoalDetail, error)
	UpdateGoal(ctx context.Context, owner, goalID string, patch service.GoalPatch) (*models.Goal, error)
	DeleteGoal(ctx context.Context, owner, goalID string) error

	CreateTask(ctx context.Context, owner, goalID, title string) (*models.Task, error)
	GetTask(ctx context.Context, owner, taskID string) (*models.TaskWithSubtasks, error)
	ListTasksByGoal(ctx context.Context, owner, goalID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, owner, taskID string, patch service.TitlePatch) (*models.Task, error)
	DeleteTask(ctx context.Context, owner, taskID string) error

	CreateSubtask(ctx context.Context, owner, taskID, title string) (*models.Subtask, error)
	GetSubtask(ctx context.Context, owner, subtaskID string) (*models.Subtask, error)
	UpdateSubtask(ctx context.Context, owner, subtaskID string, patch service.TitlePatch) (*models.Subtask, error)
	ToggleSubtask(ctx context.Context, owner, subtaskID string) (*service.ToggleResult, error)
	DeleteSubtask(ctx context.Context, owner, subtaskID string) error
}

// Options configures the HTTP surface.
type Options struct {
	// APIPrefix is the path every authenticated route is mounted under.
	APIPrefix string
	Logger    *slog.Logger
}

// Server is the SkillTracker REST API
type Server struct {
	tracker Tracker
	auth    auth.Authenticator
	log     *slog.Logger
	router  *gin.Engine
}

// NewServer creates the router with every route registered.
func NewServer(tracker Tracker, authn auth.Authenticator, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	s := &Server{
		tracker: tracker,
		auth:    authn,
		log:     log,
		router:  router,
	}

	router.Use(gin.Recovery(), s.requestLogger(), cors())

	router.GET("/", s.handleHealth)

	api := router.Group("/" + strings.Trim(opts.APIPrefix, "/"))
	api.Use(s.requireAuth())
	{
		api.POST("/goals", s.handleCreateGoal)
		api.GET("/goals", s.handleListGoals)
		api.GET("/goals/:id", s.handleGetGoal)
		api.PUT("/goals/:id", s.handleUpdateGoal)
		api.DELETE("/goals/:id", s.handleDeleteGoal)

		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/goal/:goalId", s.handleListTasksByGoal)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		api.POST("/subtasks", s.handleCreateSubtask)
		api.GET("/subtasks/:id", s.handleGetSubtask)
		api.PATCH("/subtasks/:id/toggle", s.handleToggleSubtask)
		api.PUT("/subtasks/:id", s.handleUpdateSubtask)
		api.PATCH("/subtasks/:id", s.handleUpdateSubtask)
		api.DELETE("/subtasks/:id", s.handleDeleteSubtask)
	}

	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "SkillTracker API is running...")
}
