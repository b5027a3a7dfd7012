package modes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

// WeatherData is the cached payload for the weather mode.
type WeatherData struct {
	Location    string    `json:"location"`
	TempC       float64   `json:"tempC"`
	WindKph     float64   `json:"windKph"`
	WeatherCode int       `json:"weatherCode"`
	Condition   string    `json:"condition"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// FingerprintFields excludes the fetch timestamp so unchanged forecasts
// keep their fingerprint across refreshes.
func (d *WeatherData) FingerprintFields() any {
	return struct {
		Location    string  `json:"location"`
		TempC       float64 `json:"tempC"`
		WindKph     float64 `json:"windKph"`
		WeatherCode int     `json:"weatherCode"`
	}{d.Location, d.TempC, d.WindKph, d.WeatherCode}
}

// WeatherProvider fetches current conditions from an open-meteo style
// endpoint.
type WeatherProvider struct {
	endpoint string
	location string
	client   *http.Client
	icons    IconCache
}

var _ Provider = (*WeatherProvider)(nil)

func NewWeatherProvider(endpoint, location string, client *http.Client, icons IconCache) *WeatherProvider {
	if client == nil {
		client = defaultClient()
	}
	return &WeatherProvider{endpoint: endpoint, location: location, client: client, icons: icons}
}

func (p *WeatherProvider) ModeID() string           { return "weather" }
func (p *WeatherProvider) CacheKey() string         { return "weather:current" }
func (p *WeatherProvider) Strategy() types.Strategy { return types.StrategyFixedTTL }

// currentWeatherResponse mirrors the open-meteo current_weather block.
type currentWeatherResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (p *WeatherProvider) Fetch(ctx context.Context) (any, error) {
	lat, lon, err := splitLatLon(p.location)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s?latitude=%s&longitude=%s&current_weather=true", p.endpoint, lat, lon)

	var resp currentWeatherResponse
	if err := getJSON(ctx, p.client, url, &resp); err != nil {
		return nil, fmt.Errorf("weather fetch failed: %w", err)
	}

	return &WeatherData{
		Location:    p.location,
		TempC:       resp.CurrentWeather.Temperature,
		WindKph:     resp.CurrentWeather.WindSpeed,
		WeatherCode: resp.CurrentWeather.WeatherCode,
		Condition:   conditionForCode(resp.CurrentWeather.WeatherCode),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (p *WeatherProvider) Decode(raw []byte) (any, error) {
	var data WeatherData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode weather snapshot: %w", err)
	}
	return &data, nil
}

func (p *WeatherProvider) RenderCurrent(value any) (*display.Frame, error) {
	data, ok := value.(*WeatherData)
	if !ok {
		return nil, fmt.Errorf("weather: %w", display.ErrNoRenderable)
	}
	frame := &display.Frame{
		ModeID: p.ModeID(),
		Lines: []string{
			fmt.Sprintf("%.0fC", data.TempC),
			fmt.Sprintf("WIND %.0f", data.WindKph),
		},
		RenderedAt: time.Now().UTC(),
	}
	if p.icons != nil {
		if path, ok := p.icons.Cached(data.Condition); ok {
			frame.IconPath = path
		}
	}
	return frame, nil
}

func (p *WeatherProvider) ScrollText(value any) string { return "" }

func splitLatLon(location string) (string, string, error) {
	parts := strings.SplitN(location, ",", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("weather location %q is not lat,lon", location)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// conditionForCode maps WMO weather codes to icon-friendly condition names.
func conditionForCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code >= 1 && code <= 2:
		return "partly-cloudy"
	case code == 3:
		return "cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "showers"
	case code == 85 || code == 86:
		return "snow"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
