package station

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "WxEdge/pkg/http"
)

const sampleDSM = `
000
SXUS70 KOKX 311600
DSMNYC

KNYC DS 1600 08/31 881459/ 680559// 00// 00/ 12345/
`

func newDSMService(t *testing.T, url string) *DSMService {
	t.Helper()
	return NewDSMService(DSMConfig{
		ProductURL: url,
		IssuedBy:   "NYC",
		StationID:  "KNYC",
		City:       "NYC",
		Timezone:   "America/New_York",
	}, xhttp.NewClient(), testLogger(t))
}

func TestDSMParseText(t *testing.T) {
	svc := newDSMService(t, "http://unused")

	rec, err := svc.parseText(sampleDSM)
	if err != nil {
		t.Fatalf("parseText() error: %v", err)
	}
	if rec.HighF != 88 {
		t.Fatalf("HighF = %v, want 88", rec.HighF)
	}
	if rec.LowF != 68 {
		t.Fatalf("LowF = %v, want 68", rec.LowF)
	}
	if !rec.Final || rec.Source != "DSM" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestDSMParseTextWrongStation(t *testing.T) {
	svc := newDSMService(t, "http://unused")

	if _, err := svc.parseText("KMDW DS 1600 08/31 881459/ 680559//"); err == nil {
		t.Fatalf("parseText() accepted wrong station")
	}
}

func TestParseDSMTemp(t *testing.T) {
	tests := []struct {
		group    string
		wantTemp float64
		wantTime string
		ok       bool
	}{
		{"881459", 88, "1459", true},
		{"351559/", 35, "1559", true},
		{"M051220", -5, "1220", true},
		{"garbage", 0, "", false},
		{"88", 0, "", false},
	}
	for _, tt := range tests {
		temp, at, ok := parseDSMTemp(tt.group)
		if ok != tt.ok {
			t.Fatalf("parseDSMTemp(%q) ok = %v, want %v", tt.group, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if temp != tt.wantTemp || at != tt.wantTime {
			t.Fatalf("parseDSMTemp(%q) = (%v, %q), want (%v, %q)", tt.group, temp, at, tt.wantTemp, tt.wantTime)
		}
	}
}

func TestResolveDSMDateYearRollover(t *testing.T) {
	jan := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := resolveDSMDate("12/31", jan)
	if err != nil {
		t.Fatalf("resolveDSMDate() error: %v", err)
	}
	if got != "2025-12-31" {
		t.Fatalf("resolveDSMDate() = %q, want 2025-12-31", got)
	}

	aug := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	got, err = resolveDSMDate("08/31", aug)
	if err != nil {
		t.Fatalf("resolveDSMDate() error: %v", err)
	}
	if got != "2025-08-31" {
		t.Fatalf("resolveDSMDate() = %q, want 2025-08-31", got)
	}
}

func TestDSMFetchLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("product") != "DSM" || q.Get("issuedby") != "NYC" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, sampleDSM)
	}))
	defer srv.Close()

	svc := newDSMService(t, srv.URL)

	rec, err := svc.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest() error: %v", err)
	}
	if rec == nil || rec.HighF != 88 {
		t.Fatalf("unexpected record %+v", rec)
	}
}
