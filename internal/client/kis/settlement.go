package kis

import (
	"context"
	"encoding/json"
	"net/url"
)

// FuturesBalanceSettlement reads the futures/options settled-PnL detail for
// one day and returns the body decoded into a generic map. The read-side
// proxy endpoints forward it as-is; nothing in the write pipelines depends
// on its shape.
func (c *Client) FuturesBalanceSettlement(ctx context.Context, accessToken string, acct Account, inqrDt, fk200, nk200 string) (map[string]any, error) {
	query := url.Values{}
	query.Set("CANO", acct.CANO)
	query.Set("ACNT_PRDT_CD", acct.AcntPrdtCd)
	query.Set("INQR_DT", inqrDt)
	query.Set("CTX_AREA_FK200", fk200)
	query.Set("CTX_AREA_NK200", nk200)

	body, err := c.doRequest(ctx, futuresSettlementPath, trIDFuturesSettlement, accessToken, query)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FuturesBalanceRaw is the passthrough variant of FuturesBalance used by the
// proxy endpoint, keeping the caller-supplied margin and settlement-state
// codes instead of the pipeline defaults.
func (c *Client) FuturesBalanceRaw(ctx context.Context, accessToken string, acct Account, mgnaDvsn, exccStatCd, fk200, nk200 string) (map[string]any, error) {
	query := url.Values{}
	query.Set("CANO", acct.CANO)
	query.Set("ACNT_PRDT_CD", acct.AcntPrdtCd)
	query.Set("MGNA_DVSN", mgnaDvsn)
	query.Set("EXCC_STAT_CD", exccStatCd)
	query.Set("CTX_AREA_FK200", fk200)
	query.Set("CTX_AREA_NK200", nk200)

	body, err := c.doRequest(ctx, futuresBalancePath, trIDFuturesBalance, accessToken, query)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
