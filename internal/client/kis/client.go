package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	trIDSpotBalance       = "TTTC8434R"
	trIDFuturesBalance    = "CTFO6118R"
	trIDRealizedPnl       = "TTTC8708R"
	trIDFuturesSettlement = "CTFO6117R"
	spotBalancePath       = "/uapi/domestic-stock/v1/trading/inquire-account-balance"
	futuresBalancePath    = "/uapi/domestic-futureoption/v1/trading/inquire-balance"
	realizedPnlPath       = "/uapi/domestic-stock/v1/trading/inquire-period-profit"
	futuresSettlementPath = "/uapi/domestic-futureoption/v1/trading/inquire-balance-settlement-pl"
	defaultHost           = "https://openapi.koreainvestment.com:9443"
)

// Client issues authenticated GET requests against the KIS OpenAPI. The
// access token is passed per call because it rotates between pipeline runs.
type Client struct {
	host       string
	httpClient *http.Client
	appKey     string
	appSecret  string
	custType   string
}

// APIError carries the upstream status fields verbatim. RtCd/MsgCd/Msg are
// set when the brokerage answered with a non-success rt_cd; otherwise Status
// holds the HTTP status of a transport-level failure.
type APIError struct {
	Status int
	RtCd   string
	MsgCd  string
	Msg    string
}

func (e *APIError) Error() string {
	if e.RtCd != "" {
		return fmt.Sprintf("KIS API error %s: %s", e.MsgCd, e.Msg)
	}
	return fmt.Sprintf("KIS API error (HTTP %d): %s", e.Status, e.Msg)
}

// Account identifies one brokerage account partition: 8-digit account
// number plus 2-digit product code.
type Account struct {
	CANO       string
	AcntPrdtCd string
}

func NewClient(httpClient *http.Client, host, appKey, appSecret, custType string) *Client {
	if host == "" {
		host = defaultHost
	}
	host = strings.TrimRight(host, "/")
	if custType == "" {
		custType = "P"
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		appKey:     appKey,
		appSecret:  appSecret,
		custType:   custType,
	}
}

// envelope is the part of every KIS response shared across endpoints.
type envelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

// doRequest performs one authenticated GET, verifies both the HTTP status
// and the rt_cd status field, and returns the raw body for endpoint-specific
// decoding.
func (c *Client) doRequest(ctx context.Context, path, trID, accessToken string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+accessToken)
	req.Header.Set("appkey", c.appKey)
	req.Header.Set("appsecret", c.appSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", c.custType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Msg: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.RtCd != "0" {
		return nil, &APIError{Status: resp.StatusCode, RtCd: env.RtCd, MsgCd: env.MsgCd, Msg: env.Msg1}
	}
	return body, nil
}
