package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphastore-tech/dashboard-backend/internal/repository"
)

type PnlHandler struct {
	Repo repository.Repository
}

func (h *PnlHandler) Register(r *gin.Engine) {
	r.GET("/pnl", h.listRange)
}

func (h *PnlHandler) listRange(c *gin.Context) {
	start, ok := parseDate(c.Query("start_date"))
	if !ok {
		Error(c, http.StatusBadRequest, "invalid start_date, use YYYY-MM-DD", nil)
		return
	}
	end, ok := parseDate(c.Query("end_date"))
	if !ok {
		Error(c, http.StatusBadRequest, "invalid end_date, use YYYY-MM-DD", nil)
		return
	}
	items, err := h.Repo.ListRealizedPnl(
		c.Request.Context(),
		c.Query("account_no"),
		start.Format("20060102"),
		end.Format("20060102"),
	)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}
