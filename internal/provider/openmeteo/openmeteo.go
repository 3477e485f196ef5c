// Package openmeteo fetches point weather forecasts from the Open-Meteo API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.open-meteo.com"

type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 8 * time.Second},
	}
}

// Daily holds one forecast day.
type Daily struct {
	Date             string  `json:"date"`
	WeatherCode      int     `json:"weatherCode"`
	TemperatureMax   float64 `json:"temperatureMax"`
	TemperatureMin   float64 `json:"temperatureMin"`
	PrecipitationSum float64 `json:"precipitationSum"`
}

// Forecast is the typed forecast for one coordinate.
type Forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     []Daily `json:"daily"`
}

type apiResponse struct {
	Timezone string `json:"timezone"`
	Daily    struct {
		Time             []string  `json:"time"`
		WeatherCode      []int     `json:"weathercode"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch returns up to days of daily forecast for the given point.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, days int) (Forecast, error) {
	if days <= 0 {
		days = 3
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("timezone", "auto")
	q.Set("daily", "weathercode,temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("forecast_days", strconv.Itoa(days))

	u := c.baseURL + "/v1/forecast?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Forecast{}, err
	}
	res, err := c.httpc.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("open-meteo request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("open-meteo: unexpected status %d", res.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Forecast{}, fmt.Errorf("open-meteo: decoding response: %w", err)
	}

	fc := Forecast{Latitude: lat, Longitude: lon, Timezone: parsed.Timezone}
	for i, day := range parsed.Daily.Time {
		d := Daily{Date: day}
		if i < len(parsed.Daily.WeatherCode) {
			d.WeatherCode = parsed.Daily.WeatherCode[i]
		}
		if i < len(parsed.Daily.TemperatureMax) {
			d.TemperatureMax = parsed.Daily.TemperatureMax[i]
		}
		if i < len(parsed.Daily.TemperatureMin) {
			d.TemperatureMin = parsed.Daily.TemperatureMin[i]
		}
		if i < len(parsed.Daily.PrecipitationSum) {
			d.PrecipitationSum = parsed.Daily.PrecipitationSum[i]
		}
		fc.Daily = append(fc.Daily, d)
	}
	return fc, nil
}
