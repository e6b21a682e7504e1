package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"personal-finance-backend/internal/finance"
)

type createGoalRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"targetAmount"`
	SavedAmount  float64 `json:"savedAmount"`
	DueDate      string  `json:"dueDate"`
	CategoryIcon string  `json:"categoryIcon"`
	Priority     string  `json:"priority"`
}

type updateGoalRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	TargetAmount *float64 `json:"targetAmount"`
	SavedAmount  *float64 `json:"savedAmount"`
	DueDate      *string  `json:"dueDate"`
	CategoryIcon *string  `json:"categoryIcon"`
	Status       *string  `json:"status"`
	Priority     *string  `json:"priority"`
}

type addAmountRequest struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) createGoal(c *gin.Context) {
	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	due, err := parseTime("dueDate", req.DueDate, h.svc.Location())
	if err != nil {
		h.fail(c, err)
		return
	}

	g, err := h.svc.CreateGoal(c.Request.Context(), currentUser(c), finance.GoalInput{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		DueDate:      due,
		CategoryIcon: req.CategoryIcon,
		Priority:     req.Priority,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"goal": g})
}

func (h *Handler) listGoals(c *gin.Context) {
	goals, err := h.svc.ListGoals(c.Request.Context(), currentUser(c), finance.GoalQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, len(goals), nil, gin.H{"goals": goals})
}

func (h *Handler) getGoal(c *gin.Context) {
	id, ok := h.pathID(c, "goal")
	if !ok {
		return
	}
	g, err := h.svc.GetGoal(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"goal": g})
}

func (h *Handler) updateGoal(c *gin.Context) {
	id, ok := h.pathID(c, "goal")
	if !ok {
		return
	}
	var req updateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	patch := finance.GoalPatch{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		CategoryIcon: req.CategoryIcon,
		Status:       req.Status,
		Priority:     req.Priority,
	}
	if req.DueDate != nil {
		due, err := parseTime("dueDate", *req.DueDate, h.svc.Location())
		if err != nil {
			h.fail(c, err)
			return
		}
		patch.DueDate = due
	}

	g, err := h.svc.UpdateGoal(c.Request.Context(), currentUser(c), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"goal": g})
}

func (h *Handler) deleteGoal(c *gin.Context) {
	id, ok := h.pathID(c, "goal")
	if !ok {
		return
	}
	if err := h.svc.DeleteGoal(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addToGoal(c *gin.Context) {
	id, ok := h.pathID(c, "goal")
	if !ok {
		return
	}
	var req addAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	g, err := h.svc.AddToGoal(c.Request.Context(), currentUser(c), id, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"goal": g})
}

func (h *Handler) activeGoals(c *gin.Context) {
	goals, err := h.svc.ActiveGoals(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, len(goals), nil, gin.H{"goals": goals})
}

func (h *Handler) goalStats(c *gin.Context) {
	stats, err := h.svc.GoalStats(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}
