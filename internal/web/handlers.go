package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilianohg/skilltracker/internal/service"
)

type createGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// updateGoalRequest has no progress field; a client-sent progress is dropped.
type updateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

type createTaskRequest struct {
	Title  string `json:"title"`
	GoalID string `json:"goalId" binding:"required"`
}

type createSubtaskRequest struct {
	Title  string `json:"title"`
	TaskID string `json:"taskId" binding:"required"`
}

type titleRequest struct {
	Title *string `json:"title"`
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.writeError(c, fmt.Errorf("invalid request body: %v: %w", err, service.ErrValidation))
		return false
	}
	return true
}

func (s *Server) handleCreateGoal(c *gin.Context) {
	var req createGoalRequest
	if !s.bind(c, &req) {
		return
	}

	goal, err := s.tracker.CreateGoal(c.Request.Context(), callerID(c), req.Title, req.Description, req.Category)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (s *Server) handleListGoals(c *gin.Context) {
	goals, err := s.tracker.ListGoals(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (s *Server) handleGetGoal(c *gin.Context) {
	detail, err := s.tracker.GoalDetail(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleUpdateGoal(c *gin.Context) {
	var req updateGoalRequest
	if !s.bind(c, &req) {
		return
	}

	patch := service.GoalPatch{Title: req.Title, Description: req.Description, Category: req.Category}
	goal, err := s.tracker.UpdateGoal(c.Request.Context(), callerID(c), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *Server) handleDeleteGoal(c *gin.Context) {
	if err := s.tracker.DeleteGoal(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if !s.bind(c, &req) {
		return
	}

	task, err := s.tracker.CreateTask(c.Request.Context(), callerID(c), req.GoalID, req.Title)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleListTasksByGoal(c *gin.Context) {
	tasks, err := s.tracker.ListTasksByGoal(c.Request.Context(), callerID(c), c.Param("goalId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.tracker.GetTask(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req titleRequest
	if !s.bind(c, &req) {
		return
	}

	task, err := s.tracker.UpdateTask(c.Request.Context(), callerID(c), c.Param("id"), service.TitlePatch{Title: req.Title})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tracker.DeleteTask(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (s *Server) handleCreateSubtask(c *gin.Context) {
	var req createSubtaskRequest
	if !s.bind(c, &req) {
		return
	}

	sub, err := s.tracker.CreateSubtask(c.Request.Context(), callerID(c), req.TaskID, req.Title)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) handleGetSubtask(c *gin.Context) {
	sub, err := s.tracker.GetSubtask(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) handleUpdateSubtask(c *gin.Context) {
	var req titleRequest
	if !s.bind(c, &req) {
		return
	}

	sub, err := s.tracker.UpdateSubtask(c.Request.Context(), callerID(c), c.Param("id"), service.TitlePatch{Title: req.Title})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) handleToggleSubtask(c *gin.Context) {
	res, err := s.tracker.ToggleSubtask(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Progress updated",
		"subtask":      res.Subtask,
		"taskProgress": res.Task.Progress,
		"goalProgress": res.Goal.Progress,
	})
}

func (s *Server) handleDeleteSubtask(c *gin.Context) {
	if err := s.tracker.DeleteSubtask(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subtask deleted"})
}
