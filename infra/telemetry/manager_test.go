package telemetry

import (
	"context"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fieldops/dispatchd/config"
	coremetrics "github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/core/techstatus"
)

type mockRecorder struct {
	coremetrics.NopSink
	count int
	last  coremetrics.TechnicianStateEvent
}

func (m *mockRecorder) RecordTechnicianState(ev coremetrics.TechnicianStateEvent) error {
	m.count++
	m.last = ev
	return nil
}

func TestProcess(t *testing.T) {
	rec := &mockRecorder{}
	status := techstatus.NewMemoryStore()
	mgr := &Manager{sink: rec, status: status}

	payload := []byte(`{"technician_id":"tech-1","lat":40.7,"lng":-74.0,"available":true,"current_jobs":2,"max_jobs":3,"skill_level":4}`)
	if err := mgr.process(payload, "", "push"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if rec.count != 1 {
		t.Fatalf("expected 1 record, got %d", rec.count)
	}
	tech := rec.last.Technician
	if tech.ID != "tech-1" || !tech.Available || !tech.Active {
		t.Fatalf("unexpected technician: %#v", tech)
	}
	if tech.Location == nil || tech.Location.Lat != 40.7 {
		t.Fatalf("location not decoded: %#v", tech.Location)
	}
	if tech.CurrentJobCount != 2 || tech.MaxConcurrentJobs != 3 || tech.SkillLevel != 4 {
		t.Fatalf("load fields not decoded: %#v", tech)
	}

	entries := status.List(techstatus.Filter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 status entry, got %d", len(entries))
	}
	if entries[0].CurrentStatus != "working" || entries[0].JobLoad != "2/3" {
		t.Fatalf("unexpected status entry: %+v", entries[0])
	}
}

func TestProcessFromTopic(t *testing.T) {
	rec := &mockRecorder{}
	mgr := &Manager{sink: rec}
	topic := "technicians/state/tech-9"
	payload := []byte(`{"current_jobs":-2}`)
	if err := mgr.process(payload, topic, "push"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if rec.last.Technician.ID != "tech-9" {
		t.Fatalf("expected tech-9, got %s", rec.last.Technician.ID)
	}
	if rec.last.Technician.CurrentJobCount != 0 {
		t.Fatalf("expected job count clamp to 0, got %d", rec.last.Technician.CurrentJobCount)
	}
	// A beacon without an active flag means the technician is on the roster.
	if !rec.last.Technician.Active {
		t.Fatal("expected active default true")
	}
	if rec.last.Technician.Available {
		t.Fatal("expected available default false")
	}
}

func TestExtractID(t *testing.T) {
	id := extractID("telemetry/response/tech-42")
	if id != "tech-42" {
		t.Fatalf("unexpected id %s", id)
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestOnResponse(t *testing.T) {
	mgr := &Manager{respCh: make(chan statusMessage, 1)}
	msg := &fakeMessage{topic: "telemetry/response/tech-7", payload: []byte("hi")}
	mgr.onResponse(nil, msg)
	select {
	case m := <-mgr.respCh:
		if m.TechnicianID != "tech-7" || string(m.Payload) != "hi" {
			t.Fatalf("unexpected message %#v", m)
		}
	default:
		t.Fatal("no message received")
	}
}

func TestOnPush(t *testing.T) {
	rec := &mockRecorder{}
	mgr := &Manager{sink: rec}
	msg := &fakeMessage{topic: "technicians/state/tech-1", payload: []byte(`{"technician_id":"tech-1"}`)}
	mgr.onPush(nil, msg)
	if rec.count != 1 {
		t.Fatalf("expected 1 record, got %d", rec.count)
	}
}

type stubToken struct{}

func (stubToken) Wait() bool                     { return true }
func (stubToken) WaitTimeout(time.Duration) bool { return true }
func (stubToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (stubToken) Error() error                   { return nil }

type mockClient struct{ publishCount int }

func (m *mockClient) IsConnected() bool       { return true }
func (m *mockClient) IsConnectionOpen() bool  { return true }
func (m *mockClient) Connect() paho.Token     { return stubToken{} }
func (m *mockClient) Disconnect(quiesce uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.publishCount++
	return stubToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	return stubToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return stubToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return stubToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }

type mockDiscovery struct{ technicians []model.Technician }

func (m mockDiscovery) Discover(ctx context.Context, timeout time.Duration) ([]model.Technician, error) {
	return m.technicians, nil
}
func (m mockDiscovery) Close() error { return nil }

func TestDoPoll(t *testing.T) {
	rec := &mockRecorder{}
	mc := &mockClient{}
	mgr := &Manager{
		cfg:         config.TelemetryConfig{RequestTopic: "req", TimeoutSeconds: 1},
		cli:         mc,
		sink:        rec,
		respCh:      make(chan statusMessage, 1),
		pollReq:     prometheus.NewCounter(prometheus.CounterOpts{Name: "test_poll_requests_total"}),
		pollResp:    prometheus.NewCounter(prometheus.CounterOpts{Name: "test_poll_responses_total"}),
		pollTimeout: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_poll_timeout_total"}),
		lastCollect: prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_last_collect"}),
		latency:     prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_latency"}),
		disc:        mockDiscovery{technicians: []model.Technician{{ID: "tech-1"}, {ID: "tech-2"}}},
	}
	mgr.respCh <- statusMessage{TechnicianID: "tech-1", Payload: []byte(`{"technician_id":"tech-1"}`), Arrived: time.Now()}
	mgr.doPoll(context.Background())
	if mc.publishCount != 1 {
		t.Fatalf("expected publish 1, got %d", mc.publishCount)
	}
	if v := testutil.ToFloat64(mgr.pollReq); v != 1 {
		t.Fatalf("expected pollReq 1, got %v", v)
	}
	if v := testutil.ToFloat64(mgr.pollResp); v != 1 {
		t.Fatalf("expected pollResp 1, got %v", v)
	}
	if v := testutil.ToFloat64(mgr.pollTimeout); v != 1 {
		t.Fatalf("expected pollTimeout 1, got %v", v)
	}
	if rec.count != 1 {
		t.Fatalf("expected 1 recorded state, got %d", rec.count)
	}
}
