package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphastore-tech/dashboard-backend/internal/repository"
)

type NavHandler struct {
	Repo repository.Repository
}

func (h *NavHandler) Register(r *gin.Engine) {
	r.GET("/nav", h.listRange)
	r.GET("/nav/:date", h.getByDate)
}

func (h *NavHandler) getByDate(c *gin.Context) {
	date, ok := parseDate(c.Param("date"))
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD", nil)
		return
	}
	item, err := h.Repo.GetDailyNav(c.Request.Context(), date)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "no nav record for date: "+c.Param("date"), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *NavHandler) listRange(c *gin.Context) {
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
	items, err := h.Repo.ListDailyNav(c.Request.Context(), start, end)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}
