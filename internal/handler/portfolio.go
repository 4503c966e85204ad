package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphastore-tech/dashboard-backend/internal/service"
)

type PortfolioHandler struct {
	Service          *service.PortfolioService
	DefaultAccountNo string
}

func (h *PortfolioHandler) Register(r *gin.Engine) {
	group := r.Group("/portfolio")
	group.GET("/:date", h.get)
	group.POST("/:date", h.create)
	group.DELETE("/:date", h.remove)
}

func (h *PortfolioHandler) params(c *gin.Context) (accountType, accountNo string, ok bool) {
	accountType = c.DefaultQuery("account_type", "future")
	if !validAccountType(accountType) {
		Error(c, http.StatusBadRequest, "invalid account_type, use 'spot' or 'future'", nil)
		return "", "", false
	}
	accountNo = c.DefaultQuery("account_number", h.DefaultAccountNo)
	if accountNo == "" {
		Error(c, http.StatusBadRequest, "account_number is required", nil)
		return "", "", false
	}
	return accountType, accountNo, true
}

func (h *PortfolioHandler) get(c *gin.Context) {
	date, ok := parseDate(c.Param("date"))
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD", nil)
		return
	}
	accountType, accountNo, ok := h.params(c)
	if !ok {
		return
	}
	item, err := h.Service.Get(c.Request.Context(), date, accountType, accountNo)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "no portfolio data found for date: "+c.Param("date"), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *PortfolioHandler) create(c *gin.Context) {
	date, ok := parseDate(c.Param("date"))
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD", nil)
		return
	}
	accountType, accountNo, ok := h.params(c)
	if !ok {
		return
	}
	item, status, err := h.Service.Build(c.Request.Context(), date, accountType, accountNo)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, map[string]any{"enrichment": string(status)})
}

func (h *PortfolioHandler) remove(c *gin.Context) {
	date, ok := parseDate(c.Param("date"))
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD", nil)
		return
	}
	accountType, accountNo, ok := h.params(c)
	if !ok {
		return
	}
	deleted, err := h.Service.Delete(c.Request.Context(), date, accountType, accountNo)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if deleted == 0 {
		Error(c, http.StatusNotFound, "no portfolio data found for date: "+c.Param("date"), nil)
		return
	}
	Ok(c, gin.H{"deleted": deleted}, nil)
}
