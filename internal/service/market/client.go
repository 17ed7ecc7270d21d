package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"WxEdge/internal/domain/models"
	"WxEdge/pkg/cache"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"
	"WxEdge/pkg/util"

	"github.com/sony/gobreaker"
)

// Config holds Kalshi REST settings.
type Config struct {
	APIBase  string
	Series   string // e.g. "KXHIGHNY"
	CacheTTL time.Duration
}

// Client fetches temperature bracket markets from the Kalshi REST API.
type Client struct {
	cfg     Config
	client  *xhttp.Client
	circuit *gobreaker.CircuitBreaker
	cache   cache.Service
	logger  *applogger.Logger
}

// NewClient creates a Kalshi market client.
func NewClient(cfg Config, client *xhttp.Client, c cache.Service, l *applogger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "kalshi",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		cache:  c,
		logger: l,
	}
}

type marketsResponse struct {
	Markets []marketJSON `json:"markets"`
}

func (c *Client) fetchMarkets(ctx context.Context, params map[string][]string) ([]marketJSON, error) {
	base := map[string][]string{
		"limit":  {"100"},
		"status": {"open"},
	}
	for k, v := range params {
		base[k] = v
	}

	var resp marketsResponse
	_, err := c.circuit.Execute(func() (interface{}, error) {
		return nil, c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.cfg.APIBase + "/markets",
			Headers:     map[string]string{"Accept": "application/json"},
			QueryParams: base,
		}, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	return resp.Markets, nil
}

// FetchBrackets implements repository.MarketSource. Brackets come back
// sorted coldest to warmest; markets whose subtitle cannot be parsed are
// logged and skipped.
func (c *Client) FetchBrackets(ctx context.Context, targetDate string) ([]models.Bracket, error) {
	key := cache.GenerateKeyWithParams("market:brackets", c.cfg.Series, targetDate)
	return cache.GetOrFill(ctx, c.cache, key, c.cfg.CacheTTL, func(ctx context.Context) ([]models.Bracket, error) {
		return c.fetchBrackets(ctx, targetDate)
	})
}

func (c *Client) fetchBrackets(ctx context.Context, targetDate string) ([]models.Bracket, error) {
	date, ok := util.ParseDate(targetDate)
	if !ok {
		return nil, fmt.Errorf("invalid target date %q", targetDate)
	}
	dateCode := util.EventDateCode(date)

	markets, err := c.fetchMarkets(ctx, map[string][]string{"series_ticker": {c.cfg.Series}})
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		// Some series only answer per-event queries.
		eventTicker := fmt.Sprintf("%s-%s", c.cfg.Series, dateCode)
		markets, err = c.fetchMarkets(ctx, map[string][]string{"event_ticker": {eventTicker}})
		if err != nil {
			return nil, err
		}
	}

	var brackets []models.Bracket
	for _, m := range markets {
		if !strings.Contains(m.EventTicker, dateCode) {
			continue
		}
		b, err := parseMarket(m)
		if err != nil {
			c.logger.Warn("skipping unparsable market",
				applogger.String("ticker", m.Ticker), applogger.Error(err))
			continue
		}
		brackets = append(brackets, b)
	}

	sort.SliceStable(brackets, func(i, j int) bool {
		return brackets[i].SortKey() < brackets[j].SortKey()
	})
	return brackets, nil
}

// AvailableDates returns every date with an open market in the series,
// sorted ascending.
func (c *Client) AvailableDates(ctx context.Context) ([]string, error) {
	markets, err := c.fetchMarkets(ctx, map[string][]string{"series_ticker": {c.cfg.Series}})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, m := range markets {
		idx := strings.LastIndex(m.EventTicker, "-")
		if idx < 0 {
			continue
		}
		date, err := parseEventDate(m.EventTicker[idx+1:])
		if err != nil {
			continue
		}
		seen[date] = true
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}
