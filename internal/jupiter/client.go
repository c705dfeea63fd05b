// Package jupiter integrates the Jupiter v6 aggregator for swap routing.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	solana "github.com/gagliardetto/solana-go"

	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/metrics"
)

var (
	// ErrNoRoute indicates the aggregator returned no usable route for the pair.
	ErrNoRoute = errors.New("no swap route available")
	// ErrNoSwapTransaction indicates the swap build response omitted the transaction payload.
	ErrNoSwapTransaction = errors.New("swap response missing transaction")
)

// Client talks to a Jupiter-compatible quote API.
type Client struct {
	Base string
	Http *http.Client
}

// Quote mirrors the v6 quote response fields the executor cares about.
type Quote struct {
	InputMint      string            `json:"inputMint"`
	OutputMint     string            `json:"outputMint"`
	InAmount       string            `json:"inAmount"`
	OutAmount      string            `json:"outAmount"`
	OtherAmount    string            `json:"otherAmountThreshold"`
	SlippageBps    int               `json:"slippageBps"`
	RoutePlan      []json.RawMessage `json:"routePlan"`
	PriceImpactPct string            `json:"priceImpactPct"`
}

// NewClient builds a client against the given base URL, e.g. https://quote-api.jup.ag.
func NewClient(base string) *Client {
	return &Client{
		Base: base,
		Http: &http.Client{Timeout: 8 * time.Second},
	}
}

// GetQuote fetches a route for the mint pair. amount is in smallest units
// (lamports for SOL; token decimals apply). The aggregator's own ordering is
// kept as-is; callers take the response wholesale with no re-ranking.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", fmt.Sprintf("%d", amount))
	q.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	q.Set("onlyDirectRoutes", "false")
	u := c.Base + "/v6/quote?" + q.Encode()

	req, _ := http.NewRequestWithContext(ctx, "GET", u, nil)
	resp, err := c.Http.Do(req)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrNoRoute, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		metrics.QuotesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: quote status %d", ErrNoRoute, resp.StatusCode)
	}
	var out Quote
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.QuotesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode quote: %v", ErrNoRoute, err)
	}
	if len(out.RoutePlan) == 0 {
		metrics.QuotesTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, inputMint, outputMint)
	}
	metrics.QuotesTotal.WithLabelValues("ok").Inc()
	return &out, nil
}

// BuildSwapTransaction posts the chosen quote plus the payer's public key and
// returns the base64-encoded unsigned transaction.
func (c *Client) BuildSwapTransaction(ctx context.Context, payer solana.PublicKey, quote *Quote) (string, error) {
	payload := map[string]any{
		"userPublicKey":             payer.String(),
		"wrapAndUnwrapSol":          true,
		"asLegacyTransaction":       false,
		"useTokenLedger":            false,
		"prioritizationFeeLamports": 0,
		"quoteResponse":             quote,
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequestWithContext(ctx, "POST", c.Base+"/v6/swap", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSwapTransaction, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("%w: swap status %d", ErrNoSwapTransaction, resp.StatusCode)
	}
	var sr struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("%w: decode swap: %v", ErrNoSwapTransaction, err)
	}
	if sr.SwapTransaction == "" {
		return "", ErrNoSwapTransaction
	}
	return sr.SwapTransaction, nil
}
