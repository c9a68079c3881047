// Package telemetry collects technician status beacons over MQTT, keeping
// the techstatus view fresh between discovery cycles.
package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldops/dispatchd/config"
	"github.com/fieldops/dispatchd/core/dispatch"
	coremetrics "github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/core/techstatus"
	"github.com/fieldops/dispatchd/infra/logger"
	infmqtt "github.com/fieldops/dispatchd/infra/mqtt"
)

// Manager collects technician status either via push or polling. Push-mode
// technician apps publish beacons on the state prefix; pull mode broadcasts
// a poll request and waits for responses on the response prefix.
type Manager struct {
	cfg    config.TelemetryConfig
	cli    paho.Client
	sink   coremetrics.MetricsSink
	log    logger.Logger
	disc   dispatch.PoolDiscovery
	status techstatus.Store

	respCh chan statusMessage

	pollReq     prometheus.Counter
	pollResp    prometheus.Counter
	pollTimeout prometheus.Counter
	lastCollect prometheus.Gauge
	latency     prometheus.Histogram
}

type statusMessage struct {
	TechnicianID string
	Payload      []byte
	Arrived      time.Time
}

// NewManager connects to MQTT and prepares telemetry collection.
func NewManager(mqttCfg infmqtt.Config, cfg config.TelemetryConfig, sink coremetrics.MetricsSink, disc dispatch.PoolDiscovery, status techstatus.Store) (*Manager, error) {
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-telemetry"
	} else {
		id = "telemetry-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	m := &Manager{
		cfg:    cfg,
		cli:    cli,
		sink:   sink,
		log:    logger.New("telemetry"),
		disc:   disc,
		status: status,
		respCh: make(chan statusMessage, 100),
	}
	if err := m.registerCollectors(prometheus.DefaultRegisterer); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) registerCollectors(reg prometheus.Registerer) error {
	m.pollReq = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_requests_total", Help: "Number of telemetry poll requests"})
	m.pollResp = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_responses_total", Help: "Number of telemetry poll responses"})
	m.pollTimeout = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_timeout_total", Help: "Number of telemetry poll timeouts"})
	m.lastCollect = prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_collect_timestamp_seconds", Help: "Unix timestamp of last telemetry collection"})
	m.latency = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "telemetry_collect_latency_seconds", Help: "Latency of telemetry collection", Buckets: prometheus.DefBuckets})

	if err := reg.Register(m.pollReq); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.pollReq = are.ExistingCollector.(prometheus.Counter)
		} else {
			return err
		}
	}
	if err := reg.Register(m.pollResp); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.pollResp = are.ExistingCollector.(prometheus.Counter)
		} else {
			return err
		}
	}
	if err := reg.Register(m.pollTimeout); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.pollTimeout = are.ExistingCollector.(prometheus.Counter)
		} else {
			return err
		}
	}
	if err := reg.Register(m.lastCollect); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.lastCollect = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return err
		}
	}
	if err := reg.Register(m.latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.latency = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return err
		}
	}
	return nil
}

// Start runs telemetry collection until context is done.
func (m *Manager) Start(ctx context.Context) {
	mode := strings.ToLower(m.cfg.Mode)
	if mode == "" {
		mode = "push"
	}
	if mode == "push" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.StatePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onPush); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe state: %v", token.Error())
		}
	}
	if mode == "pull" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.ResponsePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onResponse); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe response: %v", token.Error())
		}
		go m.pollLoop(ctx)
	}
	<-ctx.Done()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}

func (m *Manager) onPush(_ paho.Client, msg paho.Message) {
	if err := m.process(msg.Payload(), msg.Topic(), "push"); err != nil {
		m.log.Errorf("push decode: %v", err)
	}
}

func (m *Manager) onResponse(_ paho.Client, msg paho.Message) {
	m.respCh <- statusMessage{TechnicianID: extractID(msg.Topic()), Payload: msg.Payload(), Arrived: time.Now()}
}

func extractID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.Interval()) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.doPoll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) doPoll(ctx context.Context) {
	start := time.Now()
	var expected map[string]struct{}
	if m.disc != nil {
		exp := make(map[string]struct{})
		technicians, err := m.disc.Discover(ctx, time.Duration(m.cfg.Timeout())*time.Second)
		if err == nil {
			for _, t := range technicians {
				exp[t.ID] = struct{}{}
			}
		}
		expected = exp
	} else {
		expected = map[string]struct{}{}
	}
	m.pollReq.Inc()
	token := m.cli.Publish(m.cfg.RequestTopic, 0, false, []byte("poll"))
	token.Wait()
	timeout := time.NewTimer(time.Duration(m.cfg.Timeout()) * time.Second)
	for {
		select {
		case resp := <-m.respCh:
			if err := m.process(resp.Payload, "", "poll"); err != nil {
				m.log.Errorf("poll decode: %v", err)
			} else {
				m.pollResp.Inc()
				m.latency.Observe(time.Since(start).Seconds())
				m.lastCollect.SetToCurrentTime()
				delete(expected, resp.TechnicianID)
			}
		case <-timeout.C:
			for range expected {
				m.pollTimeout.Inc()
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) process(payload []byte, topic, source string) error {
	var msg struct {
		TechnicianID string   `json:"technician_id"`
		Name         string   `json:"name"`
		Region       string   `json:"region"`
		Team         string   `json:"team"`
		Lat          *float64 `json:"lat"`
		Lng          *float64 `json:"lng"`
		Available    *bool    `json:"available"`
		Active       *bool    `json:"active"`
		CurrentJobs  int      `json:"current_jobs"`
		MaxJobs      int      `json:"max_jobs"`
		SkillLevel   int      `json:"skill_level"`
		TS           *int64   `json:"ts"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.TechnicianID == "" {
		msg.TechnicianID = extractID(topic)
	}
	ts := time.Now()
	if msg.TS != nil {
		ts = time.Unix(*msg.TS, 0)
	}
	if msg.CurrentJobs < 0 {
		msg.CurrentJobs = 0
	}
	tech := model.Technician{
		ID:                msg.TechnicianID,
		Name:              msg.Name,
		Region:            msg.Region,
		Team:              msg.Team,
		Active:            true,
		CurrentJobCount:   msg.CurrentJobs,
		MaxConcurrentJobs: msg.MaxJobs,
		SkillLevel:        msg.SkillLevel,
	}
	if msg.Active != nil {
		tech.Active = *msg.Active
	}
	if msg.Available != nil {
		tech.Available = *msg.Available
	}
	if msg.Lat != nil && msg.Lng != nil {
		tech.Location = &model.Coordinates{Lat: *msg.Lat, Lng: *msg.Lng}
	}
	if m.status != nil {
		m.status.Set(techstatus.FromTechnician(tech, ts))
	}
	if r, ok := m.sink.(coremetrics.TechnicianStateRecorder); ok {
		_ = r.RecordTechnicianState(coremetrics.TechnicianStateEvent{
			Technician: tech,
			Context:    source,
			Component:  "telemetry",
			Time:       ts,
		})
	}
	return nil
}
