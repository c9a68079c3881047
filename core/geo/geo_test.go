package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/fieldops/dispatchd/core/model"
)

func TestPlanarDistance(t *testing.T) {
	p := NewPlanar()

	same := model.Coordinates{Lat: 48.85, Lng: 2.35}
	d, err := p.Distance(same, same)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}

	// One degree of latitude scales to the configured km-per-degree factor.
	d, err = p.Distance(model.Coordinates{Lat: 10, Lng: 20}, model.Coordinates{Lat: 11, Lng: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-111.0) > 1e-9 {
		t.Fatalf("expected 111km for one degree, got %f", d)
	}

	// Diagonal: sqrt(3^2+4^2)=5 degrees.
	d, err = p.Distance(model.Coordinates{Lat: 0, Lng: 0}, model.Coordinates{Lat: 3, Lng: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-555.0) > 1e-9 {
		t.Fatalf("expected 555km diagonal, got %f", d)
	}
}

func TestPlanarRejectsInvalidCoordinates(t *testing.T) {
	p := NewPlanar()
	bad := model.Coordinates{Lat: math.NaN(), Lng: 0}
	ok := model.Coordinates{Lat: 0, Lng: 0}

	if _, err := p.Distance(bad, ok); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates for NaN from, got %v", err)
	}
	if _, err := p.Distance(ok, model.Coordinates{Lat: 91, Lng: 0}); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates for out-of-range to, got %v", err)
	}
}

func TestHaversineDistance(t *testing.T) {
	h := NewHaversine()

	same := model.Coordinates{Lat: -33.86, Lng: 151.2}
	d, err := h.Distance(same, same)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}

	// Paris to London, roughly 344km great-circle.
	paris := model.Coordinates{Lat: 48.8566, Lng: 2.3522}
	london := model.Coordinates{Lat: 51.5074, Lng: -0.1278}
	d, err = h.Distance(paris, london)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d < 330 || d > 360 {
		t.Fatalf("expected ~344km Paris-London, got %f", d)
	}
}

func TestHaversineRejectsInvalidCoordinates(t *testing.T) {
	h := NewHaversine()
	if _, err := h.Distance(model.Coordinates{Lat: 0, Lng: math.Inf(1)}, model.Coordinates{}); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestProvidersAgreeNearEquator(t *testing.T) {
	// At the equator a short hop should come out close on both providers.
	from := model.Coordinates{Lat: 0, Lng: 0}
	to := model.Coordinates{Lat: 0.05, Lng: 0.05}

	pd, err := NewPlanar().Distance(from, to)
	if err != nil {
		t.Fatalf("planar: %v", err)
	}
	hd, err := NewHaversine().Distance(from, to)
	if err != nil {
		t.Fatalf("haversine: %v", err)
	}
	if math.Abs(pd-hd) > 0.5 {
		t.Fatalf("providers diverge: planar=%f haversine=%f", pd, hd)
	}
}
