package api

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, len(categories), nil, gin.H{"categories": categories})
}
