package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

// MarketStreamURL is the public CLOB market-data WebSocket endpoint.
const MarketStreamURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// BookTop is the cached top of book for one token.
type BookTop struct {
	TokenID string
	BestBid float64
	BestAsk float64
	Updated time.Time
}

// Midpoint returns the mid price, or 0 when either side is missing.
func (b *BookTop) Midpoint() float64 {
	if b == nil || b.BestBid <= 0 || b.BestAsk <= 0 {
		return 0
	}
	return (b.BestBid + b.BestAsk) / 2
}

// Stream maintains a WebSocket subscription to CLOB order books and
// caches the latest top of book per token. Reconnects with backoff.
type Stream struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	assets []string
	books  map[string]*BookTop
}

// StreamOption configures the stream.
type StreamOption func(*Stream)

// WithStreamURL sets a custom WebSocket endpoint.
func WithStreamURL(u string) StreamOption {
	return func(s *Stream) {
		s.url = u
	}
}

// WithStreamLogger sets the stream's logger.
func WithStreamLogger(log zerolog.Logger) StreamOption {
	return func(s *Stream) {
		s.log = log
	}
}

// NewStream creates a stream. Call Run to connect.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{
		url:    MarketStreamURL,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    zerolog.Nop(),
		books:  make(map[string]*BookTop),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetAssets replaces the subscribed token set. The market channel has no
// unsubscribe command, so an active connection is dropped and redialed.
func (s *Stream) SetAssets(tokenIDs []string) {
	s.mu.Lock()
	s.assets = append([]string(nil), tokenIDs...)
	s.books = make(map[string]*BookTop)
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Book returns a copy of the cached top of book for a token, or nil.
func (s *Stream) Book(tokenID string) *BookTop {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[tokenID]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

// Connected reports whether a connection is currently established.
func (s *Stream) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// Run connects and consumes book events until ctx is cancelled,
// redialing with exponential backoff after any disconnect.
func (s *Stream) Run(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		if ctx.Err() != nil {
			return
		}

		s.mu.RLock()
		assets := s.assets
		s.mu.RUnlock()

		if len(assets) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := s.connect(ctx, assets); err != nil {
			d := b.Duration()
			s.log.Warn().Err(err).Dur("retry_in", d).Msg("stream connect failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
			continue
		}
		b.Reset()

		s.readLoop(ctx)
	}
}

func (s *Stream) connect(ctx context.Context, assets []string) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	sub := struct {
		Type     string   `json:"type"`
		AssetIDs []string `json:"assets_ids"`
	}{
		Type:     "market",
		AssetIDs: assets,
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.log.Info().Int("assets", len(assets)).Msg("stream connected")
	return nil
}

// readLoop consumes messages until the connection drops or ctx ends.
func (s *Stream) readLoop(ctx context.Context) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}

	pingDone := make(chan struct{})
	defer close(pingDone)
	go s.pingLoop(conn, pingDone)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-pingDone:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			conn.Close()
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("stream disconnected")
			}
			return
		}
		s.handleMessage(message)
	}
}

func (s *Stream) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type priceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type bookEvent struct {
	EventType string       `json:"event_type"`
	AssetID   string       `json:"asset_id"`
	Buys      []priceLevel `json:"buys"`
	Sells     []priceLevel `json:"sells"`
	Changes   []struct {
		Price string `json:"price"`
		Side  string `json:"side"`
		Size  string `json:"size"`
	} `json:"changes"`
}

// handleMessage parses one frame, which may carry a single event or a batch.
func (s *Stream) handleMessage(message []byte) {
	if len(message) == 0 {
		return
	}

	var events []bookEvent
	if message[0] == '[' {
		if err := json.Unmarshal(message, &events); err != nil {
			return
		}
	} else {
		var ev bookEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			return
		}
		events = []bookEvent{ev}
	}

	for i := range events {
		s.applyEvent(&events[i])
	}
}

func (s *Stream) applyEvent(ev *bookEvent) {
	if ev.AssetID == "" {
		return
	}

	switch ev.EventType {
	case "book":
		top := &BookTop{
			TokenID: ev.AssetID,
			BestBid: bestPrice(ev.Buys, true),
			BestAsk: bestPrice(ev.Sells, false),
			Updated: time.Now(),
		}
		s.mu.Lock()
		s.books[ev.AssetID] = top
		s.mu.Unlock()

	case "price_change":
		s.mu.Lock()
		top, ok := s.books[ev.AssetID]
		if ok {
			for _, ch := range ev.Changes {
				price, err := strconv.ParseFloat(ch.Price, 64)
				if err != nil || price <= 0 {
					continue
				}
				size, _ := strconv.ParseFloat(ch.Size, 64)
				// Only improvements can be applied without full depth;
				// the next book snapshot corrects retreats
				if ch.Side == "BUY" && size > 0 && price > top.BestBid {
					top.BestBid = price
				}
				if ch.Side == "SELL" && size > 0 && (top.BestAsk == 0 || price < top.BestAsk) {
					top.BestAsk = price
				}
			}
			top.Updated = time.Now()
		}
		s.mu.Unlock()
	}
}

// bestPrice scans one side of the book for its best level.
func bestPrice(levels []priceLevel, highest bool) float64 {
	best := 0.0
	for _, l := range levels {
		p, err := strconv.ParseFloat(l.Price, 64)
		if err != nil || p <= 0 {
			continue
		}
		sz, err := strconv.ParseFloat(l.Size, 64)
		if err != nil || sz <= 0 {
			continue
		}
		if best == 0 || (highest && p > best) || (!highest && p < best) {
			best = p
		}
	}
	return best
}
