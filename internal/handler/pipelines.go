package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphastore-tech/dashboard-backend/internal/service"
)

// PipelineHandler exposes manual replay triggers. Backfilling past dates is
// an out-of-band operation; these endpoints re-run a pipeline for "today",
// which is safe because both pipelines upsert on their natural keys.
type PipelineHandler struct {
	Nav *service.NavPipeline
	Pnl *service.PnlPipeline
}

func (h *PipelineHandler) Register(r *gin.Engine) {
	group := r.Group("/pipelines")
	group.POST("/nav/run", h.runNav)
	group.POST("/pnl/run", h.runPnl)
}

func (h *PipelineHandler) runNav(c *gin.Context) {
	report, err := h.Nav.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{
			"step":    report.Step,
			"aborted": report.Aborted,
		})
		return
	}
	Ok(c, gin.H{
		"trade_date": report.TradeDate.Format("2006-01-02"),
		"step":       report.Step,
	}, nil)
}

func (h *PipelineHandler) runPnl(c *gin.Context) {
	rows, err := h.Pnl.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"rows": rows}, nil)
}
