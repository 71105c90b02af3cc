// internal/common/places/client.go
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

// Searcher is the place-discovery interface the pipeline depends on.
type Searcher interface {
	NearbySearch(ctx context.Context, keyword string, loc models.Location, radiusMeters int) ([]models.Business, error)
	PlaceDetails(ctx context.Context, placeID string) (*Details, error)
}

// Details is the subset of place detail fields the pipeline uses.
type Details struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

// Client wraps the Places HTTP API (nearby search + details).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type nearbySearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string   `json:"place_id"`
		Name     string   `json:"name"`
		Vicinity string   `json:"vicinity"`
		Rating   float64  `json:"rating"`
		Ratings  int      `json:"user_ratings_total"`
		Types    []string `json:"types"`
	} `json:"results"`
}

type detailsResponse struct {
	Status string  `json:"status"`
	Result Details `json:"result"`
}

// NearbySearch finds clothing stores around loc matching keyword. A
// ZERO_RESULTS status is a normal empty answer, not an error.
func (c *Client) NearbySearch(ctx context.Context, keyword string, loc models.Location, radiusMeters int) ([]models.Business, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("type", "clothing_store")
	params.Set("keyword", keyword)
	params.Set("key", c.apiKey)

	var resp nearbySearchResponse
	if err := c.get(ctx, c.baseURL+"/nearbysearch/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, apperrors.NewPlacesUnavailableError(fmt.Errorf("nearby search status: %s", resp.Status))
	}

	businesses := make([]models.Business, 0, len(resp.Results))
	for _, r := range resp.Results {
		businesses = append(businesses, models.Business{
			PlaceID:     r.PlaceID,
			Name:        r.Name,
			Address:     r.Vicinity,
			Rating:      r.Rating,
			ReviewCount: r.Ratings,
			Types:       r.Types,
		})
	}
	return businesses, nil
}

// PlaceDetails fetches the website for a single place.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "name,website")
	params.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.get(ctx, c.baseURL+"/details/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" {
		return nil, apperrors.NewPlacesUnavailableError(fmt.Errorf("place details status: %s", resp.Status))
	}
	return &resp.Result, nil
}

func (c *Client) get(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return apperrors.NewPlacesUnavailableError(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewPlacesUnavailableError(fmt.Errorf("failed to call places API: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewPlacesUnavailableError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewPlacesUnavailableError(fmt.Errorf("places API status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewPlacesUnavailableError(fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}
