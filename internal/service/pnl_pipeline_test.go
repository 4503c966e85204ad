package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
)

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func newPnlClient(t *testing.T, handlerFn http.HandlerFunc) *kis.Client {
	t.Helper()
	srv := httptest.NewServer(handlerFn)
	t.Cleanup(srv.Close)
	return kis.NewClient(srv.Client(), srv.URL, "test-key", "test-secret", "P")
}

func TestPnlIdentityHolds(t *testing.T) {
	cases := []struct {
		name string
		row  kis.RealizedPnlRow
		want bool
	}{
		{
			name: "exact identity",
			row:  kis.RealizedPnlRow{RlztPfls: nullDec("50000"), SllAmt: nullDec("150000"), BuyAmt: nullDec("100000")},
			want: true,
		},
		{
			name: "within rounding tolerance",
			row:  kis.RealizedPnlRow{RlztPfls: nullDec("50000.005"), SllAmt: nullDec("150000"), BuyAmt: nullDec("100000")},
			want: true,
		},
		{
			name: "outside tolerance",
			row:  kis.RealizedPnlRow{RlztPfls: nullDec("50001"), SllAmt: nullDec("150000"), BuyAmt: nullDec("100000")},
			want: false,
		},
		{
			name: "missing field passes",
			row:  kis.RealizedPnlRow{RlztPfls: nullDec("99999"), SllAmt: nullDec("150000")},
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pnlIdentityHolds(tc.row); got != tc.want {
				t.Fatalf("pnlIdentityHolds=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestPnlPipelineRunOnce_PersistsRowsKeyedByAccount(t *testing.T) {
	client := newPnlClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"rt_cd": "0", "msg_cd": "", "msg1": "",
			"output1": [
				{"trad_dt": "20250601", "buy_amt": "100000", "sll_amt": "150000", "rlzt_pfls": "50000", "fee": "120"},
				{"trad_dt": "20250602", "buy_amt": "200000", "sll_amt": "190000", "rlzt_pfls": "-10000", "fee": "95"}
			],
			"output2": {"tot_rlzt_pfls": "40000"}
		}`))
	})
	repo := newFakeRepo()
	p := &PnlPipeline{
		Secrets:  &fakeSecrets{token: "tok"},
		SecretID: "kis/access-token",
		Client:   client,
		Account:  kis.Account{CANO: "12345678", AcntPrdtCd: "01"},
		Repo:     repo,
		StartYMD: "20250601",
	}

	count, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if count != 2 {
		t.Fatalf("count=%d want=2", count)
	}
	stored, ok := repo.pnlRows["12345678/20250601"]
	if !ok {
		t.Fatalf("row for 12345678/20250601 not stored, have %v", repo.pnlRows)
	}
	if !stored.RlztPfls.Valid || stored.RlztPfls.Decimal.Cmp(decimal.RequireFromString("50000")) != 0 {
		t.Fatalf("rlzt_pfls=%+v want=50000", stored.RlztPfls)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("archived snapshots=%d want=1", len(repo.snapshots))
	}
}

func TestPnlPipelineRunOnce_EmptyRangeWritesNothing(t *testing.T) {
	client := newPnlClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rt_cd": "0", "msg_cd": "", "msg1": "", "output1": [], "output2": {}}`))
	})
	repo := newFakeRepo()
	p := &PnlPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Client:  client,
		Account: kis.Account{CANO: "12345678"},
		Repo:    repo,
	}

	count, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if count != 0 {
		t.Fatalf("count=%d want=0", count)
	}
	if len(repo.pnlRows) != 0 {
		t.Fatalf("rows stored=%d want=0", len(repo.pnlRows))
	}
}

func TestPnlPipelineRunOnce_UpstreamRejectionFails(t *testing.T) {
	client := newPnlClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rt_cd": "1", "msg_cd": "EGW00123", "msg1": "token expired"}`))
	})
	p := &PnlPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Client:  client,
		Account: kis.Account{CANO: "12345678"},
		Repo:    newFakeRepo(),
	}

	_, err := p.RunOnce(context.Background())
	var apiErr *kis.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v want *kis.APIError", err)
	}
	if apiErr.MsgCd != "EGW00123" {
		t.Fatalf("msg_cd=%q want=EGW00123", apiErr.MsgCd)
	}
}

func TestPnlPipelineRunOnce_PersistFailurePropagates(t *testing.T) {
	client := newPnlClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"rt_cd": "0", "msg_cd": "", "msg1": "",
			"output1": [{"trad_dt": "20250601", "rlzt_pfls": "1"}],
			"output2": {}
		}`))
	})
	repo := newFakeRepo()
	repo.pnlErr = errors.New("deadlock detected")
	p := &PnlPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Client:  client,
		Account: kis.Account{CANO: "12345678"},
		Repo:    repo,
	}

	if _, err := p.RunOnce(context.Background()); err == nil {
		t.Fatalf("want error on persist failure")
	}
}
