package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

type realizedPnlBody struct {
	Output1 []struct {
		TradDt   string `json:"trad_dt"`
		BuyAmt   string `json:"buy_amt"`
		SllAmt   string `json:"sll_amt"`
		RlztPfls string `json:"rlzt_pfls"`
		Fee      string `json:"fee"`
		LoanInt  string `json:"loan_int"`
		TlTax    string `json:"tl_tax"`
		PflsRt   string `json:"pfls_rt"`
		SllQty1  string `json:"sll_qty1"`
		BuyQty1  string `json:"buy_qty1"`
	} `json:"output1"`
	Output2 struct {
		TotRlztPfls string `json:"tot_rlzt_pfls"`
		TotFee      string `json:"tot_fee"`
		TotTltx     string `json:"tot_tltx"`
		LoanInt     string `json:"loan_int"`
	} `json:"output2"`
}

// RealizedPnl reads daily realized profit/loss over the inclusive
// [startYMD, endYMD] range (YYYYMMDD). An empty output1 yields an empty row
// slice, not an error.
func (c *Client) RealizedPnl(ctx context.Context, accessToken string, acct Account, startYMD, endYMD string) (RealizedPnlResult, []byte, error) {
	query := url.Values{}
	query.Set("CANO", acct.CANO)
	query.Set("ACNT_PRDT_CD", acct.AcntPrdtCd)
	query.Set("INQR_STRT_DT", startYMD)
	query.Set("INQR_END_DT", endYMD)
	query.Set("PDNO", "")
	query.Set("SORT_DVSN", "01")
	query.Set("INQR_DVSN", "00")
	query.Set("CBLC_DVSN", "00")
	query.Set("CTX_AREA_FK100", "")
	query.Set("CTX_AREA_NK100", "")

	body, err := c.doRequest(ctx, realizedPnlPath, trIDRealizedPnl, accessToken, query)
	if err != nil {
		return RealizedPnlResult{}, nil, err
	}

	var parsed realizedPnlBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return RealizedPnlResult{}, nil, fmt.Errorf("failed to decode realized pnl: %w", err)
	}

	rows := make([]RealizedPnlRow, 0, len(parsed.Output1))
	for _, o := range parsed.Output1 {
		rows = append(rows, RealizedPnlRow{
			TradDt:   o.TradDt,
			BuyAmt:   toNullDecimal(o.BuyAmt),
			SllAmt:   toNullDecimal(o.SllAmt),
			RlztPfls: toNullDecimal(o.RlztPfls),
			Fee:      toNullDecimal(o.Fee),
			LoanInt:  toNullDecimal(o.LoanInt),
			TlTax:    toNullDecimal(o.TlTax),
			PflsRt:   toNullDecimal(o.PflsRt),
			SllQty1:  toNullDecimal(o.SllQty1),
			BuyQty1:  toNullDecimal(o.BuyQty1),
		})
	}

	return RealizedPnlResult{
		Rows: rows,
		Summary: RealizedPnlSummary{
			TotRlztPfls: toNullDecimal(parsed.Output2.TotRlztPfls),
			TotFee:      toNullDecimal(parsed.Output2.TotFee),
			TotTltx:     toNullDecimal(parsed.Output2.TotTltx),
			LoanInt:     toNullDecimal(parsed.Output2.LoanInt),
		},
	}, body, nil
}
