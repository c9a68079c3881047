// Package routing provides a drive-time DistanceProvider backed by an HTTP
// routing matrix API. Travel cost comes back in minutes, so deployments
// using it must express their dispatch range in minutes as well.
package routing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fieldops/dispatchd/auth"
	"github.com/fieldops/dispatchd/core/geo"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/infra/logger"
)

// Config holds the routing API settings. Credentials are optional: with an
// empty token_url requests go out unauthenticated.
type Config struct {
	APIURL         string `json:"api_url"`
	TokenURL       string `json:"token_url"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Client queries a routing matrix API for door-to-door drive times.
// Failures propagate to the caller instead of falling back to a
// straight-line estimate, so a broken routing service surfaces as
// dispatch errors rather than silently skewed scores.
type Client struct {
	apiURL string
	client *http.Client
	cred   *auth.ClientCred
	log    logger.Logger
}

type position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type matrixRequest struct {
	Origins      []position `json:"origins"`
	Destinations []position `json:"destinations"`
}

type matrixResponse struct {
	// Durations[i][j] is the drive time from origin i to destination j
	// in seconds. Negative values mark unroutable pairs.
	Durations [][]float64 `json:"durations"`
}

// NewClient creates a drive-time provider for the given API.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("routing: api_url is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		client: &http.Client{Timeout: timeout},
		log:    logger.New("routing-client"),
	}
	if cfg.TokenURL != "" {
		c.cred = auth.NewClientCred(auth.Conf{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		})
	}
	return c, nil
}

// Distance returns the drive time from from to to in minutes.
func (c *Client) Distance(from, to model.Coordinates) (float64, error) {
	if !from.Valid() {
		return 0, fmt.Errorf("%w: from (%v, %v)", geo.ErrInvalidCoordinates, from.Lat, from.Lng)
	}
	if !to.Valid() {
		return 0, fmt.Errorf("%w: to (%v, %v)", geo.ErrInvalidCoordinates, to.Lat, to.Lng)
	}

	body, err := json.Marshal(matrixRequest{
		Origins:      []position{{Lat: from.Lat, Lng: from.Lng}},
		Destinations: []position{{Lat: to.Lat, Lng: to.Lng}},
	})
	if err != nil {
		return 0, fmt.Errorf("routing: encode matrix request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.apiURL+"/v1/matrix", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("routing: build matrix request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cred != nil {
		if err := c.cred.SetAuthHeader(req); err != nil {
			return 0, fmt.Errorf("routing: authenticate: %w", err)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("routing: matrix request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return 0, fmt.Errorf("routing: matrix request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var matrix matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&matrix); err != nil {
		return 0, fmt.Errorf("routing: decode matrix response: %w", err)
	}
	if len(matrix.Durations) == 0 || len(matrix.Durations[0]) == 0 {
		return 0, fmt.Errorf("routing: matrix response has no durations")
	}
	seconds := matrix.Durations[0][0]
	if seconds < 0 {
		return 0, fmt.Errorf("routing: no route between (%v, %v) and (%v, %v)", from.Lat, from.Lng, to.Lat, to.Lng)
	}
	return seconds / 60, nil
}
