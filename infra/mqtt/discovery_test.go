package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/model"
)

type discoverySink struct {
	coremetrics.NopSink
	cycles []coremetrics.PoolDiscoveryEvent
	states []coremetrics.TechnicianStateEvent
}

func (s *discoverySink) RecordPoolDiscovery(ev coremetrics.PoolDiscoveryEvent) error {
	s.cycles = append(s.cycles, ev)
	return nil
}

func (s *discoverySink) RecordTechnicianState(ev coremetrics.TechnicianStateEvent) error {
	s.states = append(s.states, ev)
	return nil
}

func TestPahoPoolDiscovery(t *testing.T) {
	tech := model.Technician{ID: "tech-1", Name: "Ana", Active: true, Available: true, MaxConcurrentJobs: 3}
	payload, err := json.Marshal(tech)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mc := &mockClient{replies: map[string][][]byte{"dispatch/discovery": {payload}}}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()

	d, err := NewPahoPoolDiscovery(Config{Broker: "tcp://localhost:1883", ClientID: "disc"}, "dispatch/discovery", "dispatch/discovery/reply", "ping")
	if err != nil {
		t.Fatalf("discovery: %v", err)
	}
	sink := &discoverySink{}
	d.SetMetricsSink(sink)

	techs, err := d.Discover(context.Background(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(techs) != 1 || techs[0].ID != "tech-1" {
		t.Fatalf("unexpected pool %+v", techs)
	}
	if len(sink.cycles) != 1 || sink.cycles[0].Responses != 1 {
		t.Fatalf("discovery cycle not recorded: %+v", sink.cycles)
	}
	if len(sink.states) != 1 || sink.states[0].Technician.ID != "tech-1" {
		t.Fatalf("technician state not recorded: %+v", sink.states)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPahoPoolDiscovery_InvalidPayloadSkipped(t *testing.T) {
	mc := &mockClient{replies: map[string][][]byte{"dispatch/discovery": {[]byte("not-json")}}}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()

	d, err := NewPahoPoolDiscovery(Config{Broker: "tcp://localhost:1883", ClientID: "disc"}, "dispatch/discovery", "dispatch/discovery/reply", "ping")
	if err != nil {
		t.Fatalf("discovery: %v", err)
	}
	techs, err := d.Discover(context.Background(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(techs) != 0 {
		t.Fatalf("expected empty pool, got %+v", techs)
	}
}

func TestMockDiscovery(t *testing.T) {
	d := MockDiscovery{Technicians: []model.Technician{{ID: "tech-1"}}}
	techs, err := d.Discover(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(techs) != 1 {
		t.Fatalf("expected 1 technician")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
