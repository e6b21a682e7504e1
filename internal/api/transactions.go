package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"personal-finance-backend/internal/finance"
	"personal-finance-backend/internal/model"
)

type createTransactionRequest struct {
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Icon     string  `json:"icon"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note"`
	Date     string  `json:"date"`
}

type updateTransactionRequest struct {
	Type     *string  `json:"type"`
	Category *string  `json:"category"`
	Icon     *string  `json:"icon"`
	Amount   *float64 `json:"amount"`
	Note     *string  `json:"note"`
	Date     *string  `json:"date"`
}

func (h *Handler) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	date, err := parseTime("date", req.Date, h.svc.Location())
	if err != nil {
		h.fail(c, err)
		return
	}

	tx, err := h.svc.CreateTransaction(c.Request.Context(), currentUser(c), finance.TransactionInput{
		Type:     req.Type,
		Category: req.Category,
		Icon:     req.Icon,
		Amount:   req.Amount,
		Note:     req.Note,
		Date:     date,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"transaction": tx})
}

func (h *Handler) listTransactions(c *gin.Context) {
	loc := h.svc.Location()
	from, err := parseTime("dateFrom", c.Query("dateFrom"), loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	to, err := parseTime("dateTo", c.Query("dateTo"), loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := queryInt(c, "page")
	if err != nil {
		h.fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.svc.ListTransactions(c.Request.Context(), currentUser(c), finance.TransactionQuery{
		Type:       c.Query("type"),
		CategoryID: c.Query("category"),
		Sort:       c.Query("sort"),
		Page:       page,
		Limit:      limit,
		From:       from,
		To:         to,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, len(result.Transactions), result.Pagination, gin.H{"transactions": result.Transactions})
}

func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := h.pathID(c, "transaction")
	if !ok {
		return
	}
	tx, err := h.svc.GetTransaction(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"transaction": tx})
}

func (h *Handler) updateTransaction(c *gin.Context) {
	id, ok := h.pathID(c, "transaction")
	if !ok {
		return
	}
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	patch := finance.TransactionPatch{
		Type:     req.Type,
		Category: req.Category,
		Icon:     req.Icon,
		Amount:   req.Amount,
		Note:     req.Note,
	}
	if req.Date != nil {
		date, err := parseTime("date", *req.Date, h.svc.Location())
		if err != nil {
			h.fail(c, err)
			return
		}
		patch.Date = date
	}

	tx, err := h.svc.UpdateTransaction(c.Request.Context(), currentUser(c), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"transaction": tx})
}

func (h *Handler) deleteTransaction(c *gin.Context) {
	id, ok := h.pathID(c, "transaction")
	if !ok {
		return
	}
	if err := h.svc.DeleteTransaction(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) transactionSummary(c *gin.Context) {
	loc := h.svc.Location()
	from, err := parseTime("dateFrom", c.Query("dateFrom"), loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	to, err := parseTime("dateTo", c.Query("dateTo"), loc)
	if err != nil {
		h.fail(c, err)
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), currentUser(c), finance.SummaryQuery{From: from, To: to})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

func (h *Handler) transactionTrend(c *gin.Context) {
	period, err := finance.ParsePeriod(c.Query("period"))
	if err != nil {
		h.fail(c, err)
		return
	}
	loc := h.svc.Location()
	from, err := parseTime("dateFrom", c.Query("dateFrom"), loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	to, err := parseTime("dateTo", c.Query("dateTo"), loc)
	if err != nil {
		h.fail(c, err)
		return
	}

	q := finance.TrendQuery{Period: period, From: from, To: to}
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Category must be a category id")
			return
		}
		q.CategoryID = &id
	}

	trend, err := h.svc.Trend(c.Request.Context(), currentUser(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"trend": trend})
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(name, name+" must be a whole number")
	}
	return n, nil
}
