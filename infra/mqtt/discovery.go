package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/infra/logger"
)

// PahoPoolDiscovery implements dispatch.PoolDiscovery using MQTT broadcast.
// It publishes a magic word on a broadcast topic and collects technician
// presence replies from a response topic for a short period.
type PahoPoolDiscovery struct {
	cli            pahoClient
	broadcastTopic string
	responseTopic  string
	magicWord      string
	log            logger.Logger
	sink           coremetrics.MetricsSink
}

// NewPahoPoolDiscovery connects to the broker and returns a discovery
// instance.
func NewPahoPoolDiscovery(cfg Config, broadcastTopic, responseTopic, magicWord string) (*PahoPoolDiscovery, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	// The offer client already holds a session under cfg.ClientID; sharing
	// the ID would make the broker drop one of the two connections.
	id := cfg.ClientID
	if id != "" {
		id += "-discovery"
	} else {
		id = "discovery-" + uuid.NewString()
	}
	opts.SetClientID(id)

	d := &PahoPoolDiscovery{
		broadcastTopic: broadcastTopic,
		responseTopic:  responseTopic,
		magicWord:      magicWord,
		log:            logger.New("pool_discovery"),
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		d.log.Errorf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	d.cli = cli
	return d, nil
}

// SetMetricsSink configures an optional sink that records each discovery
// cycle and the technician snapshots it returned.
func (d *PahoPoolDiscovery) SetMetricsSink(sink coremetrics.MetricsSink) {
	d.sink = sink
}

// Discover broadcasts the magic word and collects technician replies until
// the timeout.
func (d *PahoPoolDiscovery) Discover(ctx context.Context, timeout time.Duration) ([]model.Technician, error) {
	var (
		techs   []model.Technician
		replies = make(chan model.Technician, 64)
	)
	if token := d.cli.Subscribe(d.responseTopic, 0, func(_ paho.Client, m paho.Message) {
		var t model.Technician
		if err := json.Unmarshal(m.Payload(), &t); err != nil {
			d.log.Errorf("invalid discovery payload: %v", err)
			return
		}
		select {
		case replies <- t:
		default:
		}
	}); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	if token := d.cli.Publish(d.broadcastTopic, 0, false, []byte(d.magicWord)); token.Wait() && token.Error() != nil {
		_ = d.cli.Unsubscribe(d.responseTopic)
		return nil, token.Error()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
loop:
	for {
		select {
		case t := <-replies:
			techs = append(techs, t)
		case <-ctx.Done():
			break loop
		case <-timer.C:
			break loop
		}
	}

	if token := d.cli.Unsubscribe(d.responseTopic); token.Wait() && token.Error() != nil {
		d.log.Errorf("unsubscribe error: %v", token.Error())
	}
	d.record(techs)
	return techs, nil
}

func (d *PahoPoolDiscovery) record(techs []model.Technician) {
	if d.sink == nil {
		return
	}
	now := time.Now()
	if rec, ok := d.sink.(coremetrics.PoolDiscoveryRecorder); ok {
		ev := coremetrics.PoolDiscoveryEvent{Pings: 1, Responses: len(techs), Component: "pool_discovery", Time: now}
		if err := rec.RecordPoolDiscovery(ev); err != nil {
			d.log.Errorf("discovery metrics error: %v", err)
		}
	}
	rec, ok := d.sink.(coremetrics.TechnicianStateRecorder)
	if !ok {
		return
	}
	for _, t := range techs {
		ev := coremetrics.TechnicianStateEvent{Technician: t, Context: "discovery", Component: "pool_discovery", Time: now}
		if err := rec.RecordTechnicianState(ev); err != nil {
			d.log.Errorf("technician state metrics error: %v", err)
		}
	}
}

// Close disconnects the discovery client from the broker.
func (d *PahoPoolDiscovery) Close() error {
	if d.cli != nil && d.cli.IsConnected() {
		d.cli.Disconnect(250)
	}
	return nil
}

// MockDiscovery is a simple PoolDiscovery used in tests.
type MockDiscovery struct {
	Technicians []model.Technician
}

func (m MockDiscovery) Discover(ctx context.Context, timeout time.Duration) ([]model.Technician, error) {
	_ = ctx
	_ = timeout
	return m.Technicians, nil
}

func (m MockDiscovery) Close() error { return nil }
