package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// SnapshotFetcher is one account's balance endpoint behind a uniform
// surface, so the NAV aggregation is symmetric over account types. The raw
// response body is returned alongside the snapshot for archiving.
type SnapshotFetcher interface {
	AccountType() string
	FetchSnapshot(ctx context.Context, accessToken string) (AccountSnapshot, []byte, error)
}

type SpotFetcher struct {
	Client  *Client
	Account Account
}

func (f *SpotFetcher) AccountType() string { return "spot" }

func (f *SpotFetcher) FetchSnapshot(ctx context.Context, accessToken string) (AccountSnapshot, []byte, error) {
	return f.Client.SpotBalance(ctx, accessToken, f.Account)
}

type FuturesFetcher struct {
	Client  *Client
	Account Account
}

func (f *FuturesFetcher) AccountType() string { return "future" }

func (f *FuturesFetcher) FetchSnapshot(ctx context.Context, accessToken string) (AccountSnapshot, []byte, error) {
	return f.Client.FuturesBalance(ctx, accessToken, f.Account)
}

type spotBalanceBody struct {
	Output2 []struct {
		NassAmt         string `json:"nass_amt"`
		EvluPflsSmtlAmt string `json:"evlu_pfls_smtl_amt"`
		DncaTotAmt      string `json:"dnca_tot_amt"`
	} `json:"output2"`
}

// SpotBalance reads the equities account valuation. The totals live in the
// first element of output2.
func (c *Client) SpotBalance(ctx context.Context, accessToken string, acct Account) (AccountSnapshot, []byte, error) {
	query := url.Values{}
	query.Set("CANO", acct.CANO)
	query.Set("ACNT_PRDT_CD", acct.AcntPrdtCd)
	query.Set("AFHR_FLPR_YN", "N")
	query.Set("OFL_YN", "")
	query.Set("INQR_DVSN", "01")
	query.Set("UNPR_DVSN", "01")
	query.Set("FUND_STTL_ICLD_YN", "N")
	query.Set("FNCG_AMT_AUTO_RDPT_YN", "N")
	query.Set("PRCS_DVSN", "01")
	query.Set("CTX_AREA_FK100", "")
	query.Set("CTX_AREA_NK100", "")

	body, err := c.doRequest(ctx, spotBalancePath, trIDSpotBalance, accessToken, query)
	if err != nil {
		return AccountSnapshot{}, nil, err
	}

	var parsed spotBalanceBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return AccountSnapshot{}, nil, fmt.Errorf("failed to decode spot balance: %w", err)
	}
	if len(parsed.Output2) == 0 {
		return AccountSnapshot{}, nil, &APIError{MsgCd: "DECODE", Msg: "spot balance response missing output2"}
	}
	out := parsed.Output2[0]

	equity, err := mustDecimal(out.NassAmt, "nass_amt")
	if err != nil {
		return AccountSnapshot{}, nil, err
	}
	unrealized, err := mustDecimal(out.EvluPflsSmtlAmt, "evlu_pfls_smtl_amt")
	if err != nil {
		return AccountSnapshot{}, nil, err
	}
	cash, err := mustDecimal(out.DncaTotAmt, "dnca_tot_amt")
	if err != nil {
		return AccountSnapshot{}, nil, err
	}

	return AccountSnapshot{
		EndingEquity:  equity,
		UnrealizedPnl: unrealized,
		CashBalance:   cash,
	}, body, nil
}

type futuresBalanceBody struct {
	Output2 struct {
		PrsmDpastAmt    string `json:"prsm_dpast_amt"`
		EvluPflsAmtSmtl string `json:"evlu_pfls_amt_smtl"`
		DncaCash        string `json:"dnca_cash"`
	} `json:"output2"`
}

// FuturesBalance reads the futures/options account valuation. Unlike the
// spot endpoint, output2 here is a single object, and the estimated deposit
// asset amount stands in for NAV.
func (c *Client) FuturesBalance(ctx context.Context, accessToken string, acct Account) (AccountSnapshot, []byte, error) {
	query := url.Values{}
	query.Set("CANO", acct.CANO)
	query.Set("ACNT_PRDT_CD", acct.AcntPrdtCd)
	query.Set("MGNA_DVSN", "01")
	query.Set("EXCC_STAT_CD", "2")
	query.Set("CTX_AREA_FK200", "")
	query.Set("CTX_AREA_NK200", "")

	body, err := c.doRequest(ctx, futuresBalancePath, trIDFuturesBalance, accessToken, query)
	if err != nil {
		return AccountSnapshot{}, nil, err
	}

	var parsed futuresBalanceBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return AccountSnapshot{}, nil, fmt.Errorf("failed to decode futures balance: %w", err)
	}
	out := parsed.Output2

	equity, err := mustDecimal(out.PrsmDpastAmt, "prsm_dpast_amt")
	if err != nil {
		return AccountSnapshot{}, nil, err
	}
	unrealized, err := mustDecimal(out.EvluPflsAmtSmtl, "evlu_pfls_amt_smtl")
	if err != nil {
		return AccountSnapshot{}, nil, err
	}
	cash, err := mustDecimal(out.DncaCash, "dnca_cash")
	if err != nil {
		return AccountSnapshot{}, nil, err
	}

	return AccountSnapshot{
		EndingEquity:  equity,
		UnrealizedPnl: unrealized,
		CashBalance:   cash,
	}, body, nil
}
