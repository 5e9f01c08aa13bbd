package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

const mapQuestURL = "https://www.mapquestapi.com/geocoding/v1/address"

// MapQuest queries the MapQuest geocoding API.
type MapQuest struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

type Option func(*mapQuestOptions)

type mapQuestOptions struct {
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	timeout    time.Duration
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(u string) Option { return func(o *mapQuestOptions) { o.baseURL = u } }

// WithRetries sets how many times a failed lookup is retried and the
// exponential backoff bounds.
func WithRetries(n int, base, maxDelay time.Duration) Option {
	return func(o *mapQuestOptions) {
		o.maxRetries, o.baseDelay, o.maxDelay = n, base, maxDelay
	}
}

func NewMapQuest(apiKey string, opts ...Option) *MapQuest {
	o := mapQuestOptions{
		baseURL:    mapQuestURL,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   2 * time.Second,
		timeout:    10 * time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}

	transport := rehttp.NewTransport(http.DefaultTransport,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(o.maxRetries),
			rehttp.RetryHTTPMethods(http.MethodGet),
			rehttp.RetryAny(
				rehttp.RetryTemporaryErr(),
				rehttp.RetryStatuses(
					http.StatusTooManyRequests,
					http.StatusInternalServerError,
					http.StatusBadGateway,
					http.StatusServiceUnavailable,
					http.StatusGatewayTimeout,
				),
			),
		),
		rehttp.ExpJitterDelay(o.baseDelay, o.maxDelay))

	return &MapQuest{
		client:  &http.Client{Transport: transport, Timeout: o.timeout},
		baseURL: o.baseURL,
		apiKey:  apiKey,
	}
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []mapQuestLocation `json:"locations"`
	} `json:"results"`
}

type mapQuestLocation struct {
	Street     string `json:"street"`
	AdminArea5 string `json:"adminArea5"` // city
	AdminArea3 string `json:"adminArea3"` // state
	AdminArea1 string `json:"adminArea1"` // country
	PostalCode string `json:"postalCode"`
	LatLng     struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"latLng"`
}

func (m *MapQuest) Geocode(ctx context.Context, address string) ([]Location, error) {
	q := url.Values{"key": {m.apiKey}, "location": {address}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, redactKey(err, m.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: mapquest returned %s", ErrUnavailable, resp.Status)
	}

	var body mapQuestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if body.Info.StatusCode != 0 {
		return nil, fmt.Errorf("%w: mapquest status %d: %s", ErrUnavailable,
			body.Info.StatusCode, strings.Join(body.Info.Messages, "; "))
	}

	var out []Location
	for _, r := range body.Results {
		for _, l := range r.Locations {
			out = append(out, Location{
				Latitude:         l.LatLng.Lat,
				Longitude:        l.LatLng.Lng,
				FormattedAddress: formatAddress(l),
				Street:           l.Street,
				City:             l.AdminArea5,
				State:            l.AdminArea3,
				Zipcode:          l.PostalCode,
				Country:          l.AdminArea1,
			})
		}
	}
	return out, nil
}

// formatAddress renders "street, city, state zip, country", skipping blanks.
func formatAddress(l mapQuestLocation) string {
	stateZip := strings.TrimSpace(l.AdminArea3 + " " + l.PostalCode)
	var parts []string
	for _, p := range []string{l.Street, l.AdminArea5, stateZip, l.AdminArea1} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// redactKey keeps the API key out of errors that embed the request URL.
func redactKey(err error, key string) string {
	if key == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")
}
