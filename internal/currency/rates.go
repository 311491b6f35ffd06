package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RatesClient fetches mid exchange rates against PLN from the public NBP
// (Narodowy Bank Polski) API. Unreachable rates fall back to a static
// table so that dashboards degrade instead of failing.
type RatesClient struct {
	baseURL string
	client  *http.Client
}

// Fallback mid rates used when the API is unreachable.
var fallbackRates = map[string]float64{
	"PLN": 1,
	"EUR": 4.3,
	"USD": 4.0,
	"GBP": 5.1,
	"CHF": 4.5,
}

func NewRatesClient() *RatesClient {
	return &RatesClient{
		baseURL: "https://api.nbp.pl/api/exchangerates/rates/a",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type nbpResponse struct {
	Rates []struct {
		Mid float64 `json:"mid"`
	} `json:"rates"`
}

// MidRate returns the PLN mid rate for the given currency. PLN is always 1.
func (c *RatesClient) MidRate(ctx context.Context, code string) (float64, error) {
	code = Normalize(code)
	if code == "PLN" {
		return 1, nil
	}

	url := fmt.Sprintf("%s/%s/?format=json", c.baseURL, strings.ToLower(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if fb, ok := fallbackRates[code]; ok {
			return fb, nil
		}
		return 0, fmt.Errorf("fetch rate for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if fb, ok := fallbackRates[code]; ok {
			return fb, nil
		}
		return 0, fmt.Errorf("fetch rate for %s: status %d", code, resp.StatusCode)
	}

	var body nbpResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode rates response: %w", err)
	}
	if len(body.Rates) == 0 {
		return 0, fmt.Errorf("no rates returned for %s", code)
	}
	return body.Rates[0].Mid, nil
}
