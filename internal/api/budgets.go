package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"personal-finance-backend/internal/finance"
)

type budgetRequest struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type updateBudgetRequest struct {
	Month  *string  `json:"month"`
	Amount *float64 `json:"amount"`
}

func (h *Handler) createBudget(c *gin.Context) {
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	b, err := h.svc.CreateBudget(c.Request.Context(), currentUser(c), req.Month, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"budget": b})
}

func (h *Handler) listBudgets(c *gin.Context) {
	budgets, err := h.svc.ListBudgets(c.Request.Context(), currentUser(c), c.Query("month"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, len(budgets), nil, gin.H{"budgets": budgets})
}

func (h *Handler) getBudget(c *gin.Context) {
	id, ok := h.pathID(c, "budget")
	if !ok {
		return
	}
	b, err := h.svc.GetBudget(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"budget": b})
}

func (h *Handler) updateBudget(c *gin.Context) {
	id, ok := h.pathID(c, "budget")
	if !ok {
		return
	}
	var req updateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	b, err := h.svc.UpdateBudget(c.Request.Context(), currentUser(c), id, finance.BudgetPatch{
		Month:  req.Month,
		Amount: req.Amount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"budget": b})
}

func (h *Handler) deleteBudget(c *gin.Context) {
	id, ok := h.pathID(c, "budget")
	if !ok {
		return
	}
	if err := h.svc.DeleteBudget(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentBudget(c *gin.Context) {
	progress, err := h.svc.CurrentBudget(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, progress)
}
