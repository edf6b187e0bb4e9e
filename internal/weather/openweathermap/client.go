// Package openweathermap is the remote weather source backed by the
// OpenWeatherMap 2.5 API.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DailyForecastDays is how many days are requested from the daily feed.
	DailyForecastDays = 7
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// Units is the measurement system (default: metric).
	Units string

	// Lang is the response language (default: zh_tw).
	Lang string

	// DailyFeed enables the /forecast/daily endpoint. When false the daily
	// feed is treated as empty and daily summaries are derived from the
	// 3-hour forecast.
	DailyFeed bool

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Mapper normalizes responses (optional, defaults to UTC day buckets).
	Mapper *Mapper

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	units      string
	lang       string
	dailyFeed  bool
	httpClient *resilience.Client
	mapper     *Mapper
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	units := cfg.Units
	if units == "" {
		units = "metric"
	}

	lang := cfg.Lang
	if lang == "" {
		lang = "zh_tw"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	mapper := cfg.Mapper
	if mapper == nil {
		mapper = NewMapper(time.UTC)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		units:      units,
		lang:       lang,
		dailyFeed:  cfg.DailyFeed,
		httpClient: httpClient,
		mapper:     mapper,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Fetch implements weather.Source. Current conditions and the forecast are
// requested concurrently and normalized into one Weather.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*weather.Weather, error) {
	var (
		current  *CurrentResponse
		forecast *ForecastResponse
		daily    = &DailyResponse{}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		current, err = c.CurrentWeather(gctx, lat, lon)
		return err
	})

	g.Go(func() error {
		var err error
		forecast, err = c.Forecast(gctx, lat, lon)
		return err
	})

	if c.dailyFeed {
		g.Go(func() error {
			var err error
			daily, err = c.DailyForecast(gctx, lat, lon, DailyForecastDays)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.mapper.ToWeather(current, forecast, daily), nil
}

// CurrentWeather fetches current conditions for a coordinate.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentResponse, error) {
	var resp CurrentResponse
	if err := c.get(ctx, "/weather", c.query(lat, lon), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Forecast fetches the 5-day, 3-hour step forecast for a coordinate.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*ForecastResponse, error) {
	var resp ForecastResponse
	if err := c.get(ctx, "/forecast", c.query(lat, lon), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DailyForecast fetches up to days entries from the daily feed.
func (c *Client) DailyForecast(ctx context.Context, lat, lon float64, days int) (*DailyResponse, error) {
	q := c.query(lat, lon)
	q.Set("cnt", strconv.Itoa(days))

	var resp DailyResponse
	if err := c.get(ctx, "/forecast/daily", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) query(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", c.units)
	q.Set("lang", c.lang)
	return q
}

// get performs a GET and decodes the JSON body into out. Every failure is
// returned as a *weather.Error.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return weather.Translate(fmt.Errorf("creating request: %w", err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("weather request failed")
		return weather.Translate(err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("weather request completed")

	if resp.StatusCode != http.StatusOK {
		return weather.APIErrorFromStatus(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return weather.Translate(fmt.Errorf("decoding %s response: %w", path, err))
	}

	return nil
}
