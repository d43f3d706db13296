package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Market represents a Polymarket market from the Gamma API. The list
// fields (token IDs, outcomes, prices) arrive JSON-encoded inside strings.
type Market struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Question      string `json:"question"`
	EndDate       string `json:"endDate"`
	Active        bool   `json:"active"`
	Closed        bool   `json:"closed"`
	ClobTokenIDs  string `json:"clobTokenIds"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
}

// EndTime parses the market close time.
func (m *Market) EndTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, m.EndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse end date %q: %w", m.EndDate, err)
	}
	return t.UTC(), nil
}

// TokenIDs decodes the CLOB token IDs, one per outcome.
func (m *Market) TokenIDs() ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil, fmt.Errorf("decode token ids %q: %w", m.ClobTokenIDs, err)
	}
	return ids, nil
}

// OutcomeNames decodes the outcome labels, e.g. ["Up","Down"].
func (m *Market) OutcomeNames() ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(m.Outcomes), &names); err != nil {
		return nil, fmt.Errorf("decode outcomes %q: %w", m.Outcomes, err)
	}
	return names, nil
}

// Prices decodes the per-outcome prices, each in [0,1].
func (m *Market) Prices() ([]float64, error) {
	var raw []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil {
		return nil, fmt.Errorf("decode outcome prices %q: %w", m.OutcomePrices, err)
	}
	prices := make([]float64, len(raw))
	for i, s := range raw {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse outcome price %q: %w", s, err)
		}
		prices[i] = p
	}
	return prices, nil
}

// UpDownTokens maps the market's outcomes to its UP and DOWN token IDs.
func (m *Market) UpDownTokens() (upToken, downToken string, err error) {
	ids, err := m.TokenIDs()
	if err != nil {
		return "", "", err
	}
	names, err := m.OutcomeNames()
	if err != nil {
		return "", "", err
	}
	if len(ids) != len(names) {
		return "", "", fmt.Errorf("market %s: %d tokens for %d outcomes", m.Slug, len(ids), len(names))
	}

	for i, name := range names {
		switch strings.ToUpper(name) {
		case "UP", "YES":
			upToken = ids[i]
		case "DOWN", "NO":
			downToken = ids[i]
		}
	}
	if upToken == "" || downToken == "" {
		return "", "", fmt.Errorf("market %s: outcomes %v are not up/down", m.Slug, names)
	}
	return upToken, downToken, nil
}

// GetMarketBySlug retrieves one market by its slug.
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (*Market, error) {
	params := url.Values{"slug": {slug}}
	data, err := c.get(ctx, c.gammaQuery("/markets", params))
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%s: %w", slug, ErrMarketNotFound)
	}

	return &markets[0], nil
}

// Midpoint retrieves the order book midpoint for a token, in [0,1].
func (c *Client) Midpoint(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{"token_id": {tokenID}}
	data, err := c.get(ctx, c.clobQuery("/midpoint", params))
	if err != nil {
		return 0, err
	}

	var resp struct {
		Mid string `json:"mid"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	mid, err := strconv.ParseFloat(resp.Mid, 64)
	if err != nil {
		return 0, fmt.Errorf("parse midpoint %q: %w", resp.Mid, err)
	}
	return mid, nil
}

// BuyPrice retrieves the best ask for a token, the price a taker pays.
func (c *Client) BuyPrice(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{"token_id": {tokenID}, "side": {"BUY"}}
	data, err := c.get(ctx, c.clobQuery("/price", params))
	if err != nil {
		return 0, err
	}

	var resp struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	p, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", resp.Price, err)
	}
	return p, nil
}

// MarketPrices fetches the UP and DOWN midpoints for a market, in [0,1].
func (c *Client) MarketPrices(ctx context.Context, m *Market) (up, down float64, err error) {
	upToken, downToken, err := m.UpDownTokens()
	if err != nil {
		return 0, 0, err
	}
	if up, err = c.Midpoint(ctx, upToken); err != nil {
		return 0, 0, fmt.Errorf("up midpoint: %w", err)
	}
	if down, err = c.Midpoint(ctx, downToken); err != nil {
		return 0, 0, fmt.Errorf("down midpoint: %w", err)
	}
	return up, down, nil
}
