package routing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldops/dispatchd/core/factory"
	"github.com/fieldops/dispatchd/core/geo"
	"github.com/fieldops/dispatchd/core/model"
)

func matrixServer(t *testing.T, durations [][]float64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/matrix" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Origins) != 1 || len(req.Destinations) != 1 {
			t.Errorf("expected single origin and destination, got %d/%d", len(req.Origins), len(req.Destinations))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(matrixResponse{Durations: durations})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientDistanceMinutes(t *testing.T) {
	server := matrixServer(t, [][]float64{{600}})

	client, err := NewClient(Config{APIURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	min, err := client.Distance(model.Coordinates{Lat: 48.85, Lng: 2.35}, model.Coordinates{Lat: 48.80, Lng: 2.30})
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if min != 10 {
		t.Fatalf("expected 10 minutes, got %v", min)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"route-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokens.Close()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(matrixResponse{Durations: [][]float64{{120}}})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		APIURL:       server.URL,
		TokenURL:     tokens.URL,
		ClientID:     "dispatchd",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Distance(model.Coordinates{Lat: 40, Lng: -74}, model.Coordinates{Lat: 40.1, Lng: -74.1}); err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if gotAuth != "Bearer route-token" {
		t.Fatalf("unexpected Authorization header %q", gotAuth)
	}
}

func TestClientErrors(t *testing.T) {
	t.Run("api down", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream gone", http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := NewClient(Config{APIURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		if _, err := client.Distance(model.Coordinates{Lat: 1, Lng: 1}, model.Coordinates{Lat: 2, Lng: 2}); err == nil {
			t.Fatal("expected error for 502 response")
		}
	})

	t.Run("unroutable pair", func(t *testing.T) {
		server := matrixServer(t, [][]float64{{-1}})
		client, err := NewClient(Config{APIURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		if _, err := client.Distance(model.Coordinates{Lat: 1, Lng: 1}, model.Coordinates{Lat: 2, Lng: 2}); err == nil {
			t.Fatal("expected error for negative duration")
		}
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		client, err := NewClient(Config{APIURL: "http://localhost:0"})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		_, err = client.Distance(model.Coordinates{Lat: 91, Lng: 0}, model.Coordinates{Lat: 2, Lng: 2})
		if !errors.Is(err, geo.ErrInvalidCoordinates) {
			t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
		}
	})

	t.Run("missing api_url", func(t *testing.T) {
		if _, err := NewClient(Config{}); err == nil {
			t.Fatal("expected error for empty api_url")
		}
	})
}

func TestDriveTimeFactory(t *testing.T) {
	server := matrixServer(t, [][]float64{{300}})

	p, err := geo.NewDistanceProvider(factory.ModuleConfig{
		Type: "drivetime",
		Conf: map[string]any{"api_url": server.URL, "timeout_seconds": 2},
	})
	if err != nil {
		t.Fatalf("NewDistanceProvider: %v", err)
	}
	if _, ok := p.(*Client); !ok {
		t.Fatalf("expected *Client, got %T", p)
	}

	min, err := p.Distance(model.Coordinates{Lat: 40, Lng: -74}, model.Coordinates{Lat: 40.1, Lng: -74.1})
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if min != 5 {
		t.Fatalf("expected 5 minutes, got %v", min)
	}
}
