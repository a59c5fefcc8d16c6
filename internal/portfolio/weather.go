// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultWeatherURL is the wttr.in compatible service queried by weather.
const DefaultWeatherURL = "https://wttr.in"

// ErrNoCity is returned for an empty city name.
var ErrNoCity = errors.New("no city given")

// WeatherClient fetches one-line weather reports, rate limited so a user
// cannot hammer the service from the shell.
type WeatherClient struct {
	resty   *resty.Client
	limiter *rate.Limiter
}

// NewWeatherClient creates a client for baseURL allowing rps requests per
// second. rps <= 0 disables rate limiting.
func NewWeatherClient(baseURL string, rps float64) *WeatherClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("User-Agent", "curl/8 (deskshell)")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return &WeatherClient{resty: client, limiter: limiter}
}

// Current returns the report for city, such as "London: Partly cloudy +12°C".
func (c *WeatherClient) Current(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", ErrNoCity
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("format", "%l: %C %t").
		Get("/" + url.PathEscape(city))
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("weather service returned %s", resp.Status())
	}

	report := strings.TrimSpace(resp.String())
	if report == "" {
		return "", fmt.Errorf("weather service returned an empty report")
	}
	return report, nil
}
