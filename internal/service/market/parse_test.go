package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"WxEdge/internal/domain/models"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"
)

func TestParseSubtitle(t *testing.T) {
	tests := []struct {
		subtitle  string
		wantKind  models.BracketKind
		wantLower float64
		wantUpper float64
	}{
		{"54° to 56°", models.BracketBetween, 54, 56},
		{"54 to 56", models.BracketBetween, 54, 56},
		{"54°F to 56°F", models.BracketBetween, 54, 56},
		{"87° or above", models.BracketGreaterThan, 87, 0},
		{"above 87", models.BracketGreaterThan, 87, 0},
		{"greater than 87°", models.BracketGreaterThan, 87, 0},
		{"30° or below", models.BracketLessThan, 0, 30},
		{"below 30", models.BracketLessThan, 0, 30},
		{"less than 30°F", models.BracketLessThan, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.subtitle, func(t *testing.T) {
			kind, lower, upper, err := parseSubtitle(tt.subtitle)
			if err != nil {
				t.Fatalf("parseSubtitle(%q) error: %v", tt.subtitle, err)
			}
			if kind != tt.wantKind || lower != tt.wantLower || upper != tt.wantUpper {
				t.Fatalf("parseSubtitle(%q) = (%v, %v, %v), want (%v, %v, %v)",
					tt.subtitle, kind, lower, upper, tt.wantKind, tt.wantLower, tt.wantUpper)
			}
		})
	}
}

func TestParseSubtitleUnrecognized(t *testing.T) {
	if _, _, _, err := parseSubtitle("sunny with a chance of rain"); err == nil {
		t.Fatalf("parseSubtitle() accepted junk")
	}
}

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		bid, ask, want float64
	}{
		{0, 0, 0},
		{0.40, 0.44, 0.42},
		{1.0, 0.99, 1.0},
		{0.99, 1.0, 1.0},
	}
	for _, tt := range tests {
		if got := impliedProbability(tt.bid, tt.ask); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("impliedProbability(%v, %v) = %v, want %v", tt.bid, tt.ask, got, tt.want)
		}
	}
}

func TestParseMarket(t *testing.T) {
	bid, ask, last, vol := int64(40), int64(44), int64(42), int64(1500)
	m := marketJSON{
		Ticker:      "KXHIGHNY-25AUG31-B54",
		EventTicker: "KXHIGHNY-25AUG31",
		Subtitle:    "54° to 56°",
		YesBid:      &bid,
		YesAsk:      &ask,
		LastPrice:   &last,
		Volume:      &vol,
	}

	b, err := parseMarket(m)
	if err != nil {
		t.Fatalf("parseMarket() error: %v", err)
	}
	if b.Kind != models.BracketBetween {
		t.Fatalf("Kind = %v, want between", b.Kind)
	}
	if *b.LowerF != 54 || *b.UpperF != 56 {
		t.Fatalf("bounds = [%v, %v], want [54, 56]", *b.LowerF, *b.UpperF)
	}
	if b.YesBid != 0.40 || b.YesAsk != 0.44 {
		t.Fatalf("book = (%v, %v), want (0.40, 0.44)", b.YesBid, b.YesAsk)
	}
	if math.Abs(b.ImpliedProb-0.42) > 1e-9 {
		t.Fatalf("ImpliedProb = %v, want 0.42", b.ImpliedProb)
	}
}

func TestParseMarketMissingPrices(t *testing.T) {
	m := marketJSON{
		Ticker:      "KXHIGHNY-25AUG31-B54",
		EventTicker: "KXHIGHNY-25AUG31",
		Subtitle:    "54° to 56°",
	}

	b, err := parseMarket(m)
	if err != nil {
		t.Fatalf("parseMarket() error: %v", err)
	}
	// Absent bid defaults to 0, absent ask to 100 cents.
	if b.YesBid != 0 || b.YesAsk != 1.0 {
		t.Fatalf("book = (%v, %v), want (0, 1.0)", b.YesBid, b.YesAsk)
	}
}

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		code string
		want string
		ok   bool
	}{
		{"25AUG31", "2025-08-31", true},
		{"26JAN05", "2026-01-05", true},
		{"bogus", "", false},
		{"25XXX31", "", false},
	}
	for _, tt := range tests {
		got, err := parseEventDate(tt.code)
		if tt.ok != (err == nil) {
			t.Fatalf("parseEventDate(%q) err = %v, want ok=%v", tt.code, err, tt.ok)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parseEventDate(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func marketBody(eventDate string) string {
	return fmt.Sprintf(`{"markets":[
		{"ticker":"KXHIGHNY-%[1]s-B86","event_ticker":"KXHIGHNY-%[1]s","subtitle":"86° to 87°","yes_bid":30,"yes_ask":34,"volume":100},
		{"ticker":"KXHIGHNY-%[1]s-T88","event_ticker":"KXHIGHNY-%[1]s","subtitle":"88° or above","yes_bid":5,"yes_ask":9,"volume":50},
		{"ticker":"KXHIGHNY-%[1]s-T85","event_ticker":"KXHIGHNY-%[1]s","subtitle":"85° or below","yes_bid":40,"yes_ask":46,"volume":80},
		{"ticker":"KXHIGHNY-OTHER-B86","event_ticker":"KXHIGHNY-99DEC31","subtitle":"86° to 87°","yes_bid":1,"yes_ask":99},
		{"ticker":"KXHIGHNY-%[1]s-BAD","event_ticker":"KXHIGHNY-%[1]s","subtitle":"??","yes_bid":1,"yes_ask":99}
	]}`, eventDate)
}

func TestFetchBrackets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" || r.URL.Query().Get("series_ticker") != "KXHIGHNY" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, marketBody("25AUG31"))
	}))
	defer srv.Close()

	l, err := applogger.New(&applogger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c := NewClient(Config{APIBase: srv.URL, Series: "KXHIGHNY"}, xhttp.NewClient(), nil, l)

	brackets, err := c.FetchBrackets(context.Background(), "2025-08-31")
	if err != nil {
		t.Fatalf("FetchBrackets() error: %v", err)
	}
	// Other-date and unparsable markets are dropped.
	if len(brackets) != 3 {
		t.Fatalf("got %d brackets, want 3", len(brackets))
	}
	// Sorted coldest to warmest: less-than, between, greater-than.
	if brackets[0].Kind != models.BracketLessThan {
		t.Fatalf("first bracket kind = %v, want less_than", brackets[0].Kind)
	}
	if brackets[2].Kind != models.BracketGreaterThan {
		t.Fatalf("last bracket kind = %v, want greater_than", brackets[2].Kind)
	}
}

func TestAvailableDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"markets":[
			{"ticker":"a","event_ticker":"KXHIGHNY-25SEP01","subtitle":"54° to 56°"},
			{"ticker":"b","event_ticker":"KXHIGHNY-25AUG31","subtitle":"54° to 56°"},
			{"ticker":"c","event_ticker":"KXHIGHNY-25AUG31","subtitle":"56° to 58°"},
			{"ticker":"d","event_ticker":"weird"}
		]}`)
	}))
	defer srv.Close()

	l, err := applogger.New(&applogger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c := NewClient(Config{APIBase: srv.URL, Series: "KXHIGHNY"}, xhttp.NewClient(), nil, l)

	dates, err := c.AvailableDates(context.Background())
	if err != nil {
		t.Fatalf("AvailableDates() error: %v", err)
	}
	want := []string{"2025-08-31", "2025-09-01"}
	if len(dates) != len(want) {
		t.Fatalf("got %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("got %v, want %v", dates, want)
		}
	}
}
