package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/fieldops/dispatchd/core/model"
)

// Topics collects every topic a simulated client speaks on. Patterns may
// contain a single "+" that is replaced with the technician id.
type Topics struct {
	Broadcast    string
	Response     string
	Magic        string
	Ack          string
	State        string
	Poll         string
	PollResponse string
}

// SimulatedTechnician connects to MQTT, answers presence pings with its
// roster snapshot, responds to job offers via its strategy and publishes
// telemetry beacons.
type SimulatedTechnician struct {
	Tech     model.Technician
	Broker   string
	Strategy OfferStrategy
	Interval time.Duration
	Shift    [24]float64
	Topics   Topics

	mu      sync.Mutex
	client  paho.Client
	offerCh chan string
	rng     *rand.Rand
}

// Run connects to the broker and serves until ctx is done.
func (s *SimulatedTechnician) Run(ctx context.Context) error {
	cli, err := newMQTTClient(s.Broker, "sim-"+s.Tech.ID)
	if err != nil {
		return err
	}
	s.client = cli
	s.offerCh = make(chan string, 50)
	for i := 0; i < 3; i++ {
		go s.worker(ctx)
	}

	if token := cli.Subscribe(s.Topics.Broadcast, 0, s.onPing); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	offerTopic := fmt.Sprintf("technicians/%s/offers", s.Tech.ID)
	if token := cli.Subscribe(offerTopic, 0, s.onOffer); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	if s.Topics.Poll != "" {
		if token := cli.Subscribe(s.Topics.Poll, 0, s.onPoll); token.Wait() && token.Error() != nil {
			cli.Disconnect(250)
			return token.Error()
		}
	}
	if s.Interval > 0 && s.Topics.State != "" {
		go s.beaconLoop(ctx)
	}

	<-ctx.Done()
	close(s.offerCh)
	cli.Disconnect(250)
	return nil
}

func (s *SimulatedTechnician) onPing(_ paho.Client, msg paho.Message) {
	if s.Topics.Magic != "" && string(msg.Payload()) != s.Topics.Magic {
		return
	}
	payload, err := json.Marshal(s.snapshot())
	if err != nil {
		log.Printf("%s: marshal presence: %v", s.Tech.ID, err)
		return
	}
	topic := topicFor(s.Topics.Response, s.Tech.ID)
	if token := s.client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("%s: presence reply: %v", s.Tech.ID, token.Error())
	}
}

func (s *SimulatedTechnician) onOffer(_ paho.Client, msg paho.Message) {
	var m struct {
		OfferID string `json:"offer_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("%s: decode offer: %v", s.Tech.ID, err)
		return
	}
	select {
	case s.offerCh <- m.OfferID:
	default:
		log.Printf("%s: offer queue full, dropping %s", s.Tech.ID, m.OfferID)
	}
}

func (s *SimulatedTechnician) worker(ctx context.Context) {
	ackTopic := topicFor(s.Topics.Ack, s.Tech.ID)
	for {
		select {
		case offerID, ok := <-s.offerCh:
			if !ok {
				return
			}
			s.Strategy.Respond(ctx, s.client, ackTopic, offerID)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SimulatedTechnician) onPoll(_ paho.Client, _ paho.Message) {
	s.publishBeacon(topicFor(s.Topics.PollResponse, s.Tech.ID))
}

func (s *SimulatedTechnician) beaconLoop(ctx context.Context) {
	topic := strings.TrimSuffix(s.Topics.State, "/") + "/" + s.Tech.ID
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tickShift(time.Now().Hour())
			s.publishBeacon(topic)
		case <-ctx.Done():
			return
		}
	}
}

// tickShift re-rolls availability against the hourly on-shift probability.
func (s *SimulatedTechnician) tickShift(hour int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		return
	}
	s.Tech.Available = s.rng.Float64() < s.Shift[hour]
}

func (s *SimulatedTechnician) publishBeacon(topic string) {
	t := s.snapshot()
	beacon := struct {
		TechnicianID string  `json:"technician_id"`
		Name         string  `json:"name,omitempty"`
		Region       string  `json:"region,omitempty"`
		Team         string  `json:"team,omitempty"`
		Lat          float64 `json:"lat"`
		Lng          float64 `json:"lng"`
		Available    bool    `json:"available"`
		Active       bool    `json:"active"`
		CurrentJobs  int     `json:"current_jobs"`
		MaxJobs      int     `json:"max_jobs"`
		SkillLevel   int     `json:"skill_level"`
		TS           int64   `json:"ts"`
	}{
		TechnicianID: t.ID,
		Name:         t.Name,
		Region:       t.Region,
		Team:         t.Team,
		Available:    t.Available,
		Active:       t.Active,
		CurrentJobs:  t.CurrentJobCount,
		MaxJobs:      t.MaxConcurrentJobs,
		SkillLevel:   t.SkillLevel,
		TS:           time.Now().Unix(),
	}
	if t.Location != nil {
		beacon.Lat = t.Location.Lat
		beacon.Lng = t.Location.Lng
	}
	payload, err := json.Marshal(beacon)
	if err != nil {
		log.Printf("%s: marshal beacon: %v", t.ID, err)
		return
	}
	if token := s.client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("%s: beacon publish: %v", t.ID, token.Error())
	}
}

func (s *SimulatedTechnician) snapshot() model.Technician {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Tech
}

// topicFor substitutes the technician id into a wildcard topic pattern.
func topicFor(pattern, id string) string {
	return strings.Replace(pattern, "+", id, 1)
}
