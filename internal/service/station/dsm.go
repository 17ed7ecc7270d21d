package station

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"WxEdge/internal/domain/models"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"
	"WxEdge/pkg/util"
)

// maxDSMVersions bounds the backward walk through archived product versions.
const maxDSMVersions = 30

// tempTimeRegexp parses a DSM temperature group like "351559": 35F at 15:59.
// An M prefix marks below-zero readings.
var tempTimeRegexp = regexp.MustCompile(`^(M?\d+|-\d+)(\d{4})$`)

// DSMService fetches the ASOS Daily Summary Message, the official record
// the market settles against.
type DSMService struct {
	cfg     DSMConfig
	client  *xhttp.Client
	logger  *applogger.Logger
	lineRe  *regexp.Regexp
}

// DSMConfig holds DSM product settings.
type DSMConfig struct {
	ProductURL string // forecast.weather.gov product.php endpoint
	IssuedBy   string // WFO alias, e.g. "NYC"
	StationID  string // e.g. "KNYC"
	City       string
	Timezone   string
}

// NewDSMService creates a DSM parser for one station.
func NewDSMService(cfg DSMConfig, client *xhttp.Client, l *applogger.Logger) *DSMService {
	if cfg.ProductURL == "" {
		cfg.ProductURL = "https://forecast.weather.gov/product.php"
	}
	lineRe := regexp.MustCompile(
		cfg.StationID + `\s+DS\s+(\d{4})\s+(\d{2}/\d{2})\s+([\dM-]+)/+\s+([\dM-]+)/+`)
	return &DSMService{cfg: cfg, client: client, logger: l, lineRe: lineRe}
}

// FetchLatest fetches and parses the most recent DSM.
func (s *DSMService) FetchLatest(ctx context.Context) (*models.SettlementRecord, error) {
	return s.fetchVersion(ctx, 1)
}

// FetchForDate walks back through archived versions collecting every DSM
// issued for the given local date. Corrections appear as extra versions.
func (s *DSMService) FetchForDate(ctx context.Context, date string) ([]models.SettlementRecord, error) {
	target, ok := util.ParseDate(date)
	if !ok {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	var found []models.SettlementRecord
	for v := 1; v <= maxDSMVersions; v++ {
		rec, err := s.fetchVersion(ctx, v)
		if err != nil {
			if v == 1 {
				return nil, err
			}
			break
		}
		if rec == nil {
			break
		}

		recDate, ok := util.ParseDate(rec.Date)
		if !ok {
			continue
		}
		if recDate.Equal(target) {
			found = append(found, *rec)
		} else if recDate.Before(target) {
			break
		}
	}
	return found, nil
}

func (s *DSMService) fetchVersion(ctx context.Context, version int) (*models.SettlementRecord, error) {
	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.cfg.ProductURL,
		QueryParams: map[string][]string{
			"site":     {"NWS"},
			"issuedby": {s.cfg.IssuedBy},
			"product":  {"DSM"},
			"format":   {"txt"},
			"version":  {strconv.Itoa(version)},
			"glossary": {"0"},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("fetch dsm v%d: %w", version, err)
	}

	rec, err := s.parseText(string(body))
	if err != nil {
		s.logger.Warn("dsm parse failed",
			applogger.Int("version", version), applogger.Error(err))
		return nil, nil
	}
	return rec, nil
}

func (s *DSMService) parseText(text string) (*models.SettlementRecord, error) {
	m := s.lineRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("no DS line for %s", s.cfg.StationID)
	}

	maxTemp, _, ok := parseDSMTemp(m[3])
	if !ok {
		return nil, fmt.Errorf("bad max group %q", m[3])
	}
	minTemp, _, ok := parseDSMTemp(m[4])
	if !ok {
		return nil, fmt.Errorf("bad min group %q", m[4])
	}

	date, err := resolveDSMDate(m[2], time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &models.SettlementRecord{
		City:       s.cfg.City,
		Date:       date,
		HighF:      maxTemp,
		LowF:       minTemp,
		Source:     "DSM",
		Final:      true,
		RecordedAt: time.Now(),
	}, nil
}

// parseDSMTemp splits a group like "351559" into temperature and HHMM time.
func parseDSMTemp(group string) (float64, string, bool) {
	for len(group) > 0 && group[len(group)-1] == '/' {
		group = group[:len(group)-1]
	}

	m := tempTimeRegexp.FindStringSubmatch(group)
	if m == nil {
		return 0, "", false
	}

	tempStr := m[1]
	neg := false
	if tempStr[0] == 'M' {
		neg = true
		tempStr = tempStr[1:]
	}
	temp, err := strconv.ParseFloat(tempStr, 64)
	if err != nil {
		return 0, "", false
	}
	if neg {
		temp = -temp
	}
	return temp, m[2], true
}

// resolveDSMDate attaches a year to the product's MM/DD date. A December
// product seen in January belongs to the previous year.
func resolveDSMDate(mmdd string, now time.Time) (string, error) {
	var month, day int
	if _, err := fmt.Sscanf(mmdd, "%d/%d", &month, &day); err != nil {
		return "", fmt.Errorf("bad date %q: %w", mmdd, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", fmt.Errorf("bad date %q", mmdd)
	}

	year := now.Year()
	if now.Month() == time.January && month == 12 {
		year--
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}
