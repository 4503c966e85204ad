package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
)

type tokenResolver interface {
	AccessToken(ctx context.Context, secretID string) (string, error)
}

// KISHandler proxies two futures-account inquiries straight through to the
// brokerage for the dashboard. Nothing here writes to the database.
type KISHandler struct {
	Client   *kis.Client
	Secrets  tokenResolver
	SecretID string
	Account  kis.Account
}

func (h *KISHandler) Register(r *gin.Engine) {
	group := r.Group("/kis")
	group.GET("/futures/balance-settlement", h.balanceSettlement)
	group.GET("/futureoption/balance", h.balance)
}

func (h *KISHandler) balanceSettlement(c *gin.Context) {
	inqrDt := c.Query("inqr_dt")
	if inqrDt == "" {
		Error(c, http.StatusBadRequest, "inqr_dt is required", nil)
		return
	}
	token, err := h.Secrets.AccessToken(c.Request.Context(), h.SecretID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	out, err := h.Client.FuturesBalanceSettlement(
		c.Request.Context(), token, h.Account,
		inqrDt, c.Query("ctx_area_fk200"), c.Query("ctx_area_nk200"),
	)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *KISHandler) balance(c *gin.Context) {
	token, err := h.Secrets.AccessToken(c.Request.Context(), h.SecretID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	out, err := h.Client.FuturesBalanceRaw(
		c.Request.Context(), token, h.Account,
		c.DefaultQuery("mgna_dvsn", "01"),
		c.DefaultQuery("excc_stat_cd", "2"),
		c.Query("ctx_area_fk200"),
		c.Query("ctx_area_nk200"),
	)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// writeUpstreamError maps a brokerage-side rejection to 400 with the
// upstream message intact, and everything else to 502.
func writeUpstreamError(c *gin.Context, err error) {
	var apiErr *kis.APIError
	if errors.As(err, &apiErr) && apiErr.RtCd != "" {
		Error(c, http.StatusBadRequest, apiErr.Error(), map[string]any{
			"msg_cd": apiErr.MsgCd,
		})
		return
	}
	Error(c, http.StatusBadGateway, err.Error(), nil)
}
