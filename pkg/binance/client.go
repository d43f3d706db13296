// Package binance fetches BTCUSDT candles and spot prices, the price
// feed the up/down markets settle against
package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	api "github.com/adshao/go-binance/v2"

	"github.com/brendanplayford/polymarket-go/pkg/market"
)

const (
	// SymbolBTCUSDT is the spot pair the 15-minute markets track
	SymbolBTCUSDT = "BTCUSDT"

	// Interval1m is the candle interval the indicators are computed on
	Interval1m = "1m"
)

// Client wraps the Binance spot API for public market data
type Client struct {
	api *api.Client
}

// New creates a client. Keys may be empty: candles and prices are public.
func New(apiKey, apiSecret string) *Client {
	return &Client{api: api.NewClient(apiKey, apiSecret)}
}

// Klines fetches the most recent candles for a symbol
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	klines, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}

	candles := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := parseKline(k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// LastPrice fetches the current spot price for a symbol
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.api.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch price: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", symbol)
	}
	p, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", prices[0].Price, err)
	}
	return p, nil
}

func parseKline(k *api.Kline) (market.Candle, error) {
	var c market.Candle
	var err error

	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	if c.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return c, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}
	c.OpenTime = time.UnixMilli(k.OpenTime).UTC()
	return c, nil
}
