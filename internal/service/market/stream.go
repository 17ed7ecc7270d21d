package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"WxEdge/internal/domain/models"
	applogger "WxEdge/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements repository.PriceStream over the Kalshi WebSocket
// ticker channel, delivering bid/ask updates between REST refreshes.
type Stream struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	nextID    int
	tickers   []string
}

// NewStream creates a Kalshi price stream.
func NewStream(url string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) *Stream {
	return &Stream{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         l,
		nextID:         1,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("kalshi stream connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.logger.Info("price stream connected", applogger.String("url", s.url))
	return nil
}

type subscribeCmd struct {
	ID     int             `json:"id"`
	Cmd    string          `json:"cmd"`
	Params subscribeParams `json:"params"`
}

type subscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers"`
}

// Subscribe subscribes to ticker updates for the given markets. The ticker
// set is remembered for reconnects.
func (s *Stream) Subscribe(_ context.Context, tickers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || !s.connected {
		return fmt.Errorf("kalshi stream not connected")
	}

	cmd := subscribeCmd{
		ID:  s.nextID,
		Cmd: "subscribe",
		Params: subscribeParams{
			Channels:      []string{"ticker"},
			MarketTickers: tickers,
		},
	}
	s.nextID++

	if err := s.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.tickers = tickers
	return nil
}

type tickerMessage struct {
	Type string `json:"type"`
	Msg  struct {
		MarketTicker string `json:"market_ticker"`
		YesBid       int64  `json:"yes_bid"`
		YesAsk       int64  `json:"yes_ask"`
		Price        int64  `json:"price"`
		Volume       int64  `json:"volume"`
	} `json:"msg"`
}

// Read streams price updates as partial Brackets carrying only ticker and
// book fields. The read loop ends on the first read error; callers decide
// whether to Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan models.Bracket, <-chan error) {
	updates := make(chan models.Bracket, 256)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(updates)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("kalshi stream conn nil")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("kalshi stream read: %w", err)
				return
			}

			var m tickerMessage
			if err := json.Unmarshal(b, &m); err != nil {
				continue
			}
			if m.Type != "ticker" || m.Msg.MarketTicker == "" {
				continue
			}

			update := models.Bracket{
				Ticker:    m.Msg.MarketTicker,
				YesBid:    centsToProb(m.Msg.YesBid),
				YesAsk:    centsToProb(m.Msg.YesAsk),
				LastPrice: centsToProb(m.Msg.Price),
				Volume:    m.Msg.Volume,
			}
			update.ImpliedProb = impliedProbability(update.YesBid, update.YesAsk)

			select {
			case updates <- update:
			default:
				// drop on backpressure
			}
		}
	}()

	return updates, errs
}

// Reconnect closes and reconnects, resubscribing the remembered tickers.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	tickers := s.tickers
	s.mu.Unlock()

	if len(tickers) == 0 {
		return nil
	}
	return s.Subscribe(ctx, tickers)
}

// Close closes the WebSocket connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
