// Package weather fetches current conditions from the OpenWeatherMap
// API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Report holds the current conditions for a location, in metric units.
type Report struct {
	Temperature float64
	FeelsLike   float64
	Humidity    int
	Description string
	WindSpeed   float64
}

// Client queries the OpenWeatherMap current-weather endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type weatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch returns current conditions for the location.
func (c *Client) Fetch(ctx context.Context, location string) (Report, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("weather API status %d: %s", resp.StatusCode, body)
	}

	var data weatherResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Report{}, fmt.Errorf("decode response: %w", err)
	}
	if len(data.Weather) == 0 {
		return Report{}, fmt.Errorf("weather data format error")
	}

	return Report{
		Temperature: data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
		Humidity:    data.Main.Humidity,
		Description: data.Weather[0].Description,
		WindSpeed:   data.Wind.Speed,
	}, nil
}
