package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// YahooProvider implements HistoryProvider using the Yahoo Finance chart API
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// NewYahooProvider creates new Yahoo Finance provider
func NewYahooProvider(cfg *config.PriceConfig) *YahooProvider {
	return &YahooProvider{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (y *YahooProvider) GetName() string {
	return "yahoo"
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchHistory downloads daily bars and dates them in the exchange timezone
func (y *YahooProvider) FetchHistory(ctx context.Context, ticker string, lookback int) ([]models.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		y.baseURL, url.PathEscape(ticker), rangeFor(lookback))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", result.Chart.Error.Code, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}

	points, skipped := parseChart(result.Chart.Result[0])
	if skipped > 0 {
		logger.Debug("skipped incomplete yahoo rows",
			zap.String("ticker", ticker),
			zap.Int("skipped", skipped),
		)
	}

	points = normalize(points, lookback)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}

	return points, nil
}

// parseChart converts the columnar chart payload into rows, skipping any day
// with a null close. It returns the number of skipped rows.
func parseChart(r chartResult) ([]models.PricePoint, int) {
	if len(r.Indicators.Quote) == 0 {
		return nil, len(r.Timestamp)
	}
	quote := r.Indicators.Quote[0]
	loc := exchangeLocation(r.Meta.ExchangeTimezoneName, r.Meta.GMTOffset)

	points := make([]models.PricePoint, 0, len(r.Timestamp))
	skipped := 0
	for i, ts := range r.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			skipped++
			continue
		}

		points = append(points, models.PricePoint{
			Date:   models.Day(time.Unix(ts, 0).In(loc)),
			Open:   valueOr(at(quote.Open, i), *closePrice),
			High:   valueOr(at(quote.High, i), *closePrice),
			Low:    valueOr(at(quote.Low, i), *closePrice),
			Close:  models.NewDecimal(*closePrice),
			Volume: valueOr(at(quote.Volume, i), 0),
		})
	}

	return points, skipped
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}

// rangeFor picks the smallest chart range holding lookback trading days
func rangeFor(lookback int) string {
	calendarDays := lookback*7/5 + 14
	switch {
	case calendarDays <= 365:
		return "1y"
	case calendarDays <= 730:
		return "2y"
	case calendarDays <= 1826:
		return "5y"
	case calendarDays <= 3652:
		return "10y"
	default:
		return "max"
	}
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func valueOr(v *float64, fallback float64) decimal.Decimal {
	if v == nil {
		return models.NewDecimal(fallback)
	}
	return models.NewDecimal(*v)
}
