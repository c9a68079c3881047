// Command simulator runs a fleet of fake technician mobile clients against
// an MQTT broker: presence replies for pool discovery, accept/decline
// replies to job offers and periodic telemetry beacons.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var prof [24]float64
	if cfg.ShiftFile != "" {
		data, err := os.ReadFile(cfg.ShiftFile)
		if err != nil {
			log.Fatalf("shift file: %v", err)
		}
		if prof, err = LoadShiftProfile(data); err != nil {
			log.Fatalf("shift file: %v", err)
		}
	} else {
		for i := range prof {
			prof[i] = 1
		}
	}

	fleet := GenerateFleet(FleetConfig{
		Size:      cfg.Count,
		CenterLat: cfg.CenterLat,
		CenterLng: cfg.CenterLng,
		RadiusKM:  cfg.RadiusKM,
		Shift:     prof,
		Seed:      seed,
	})
	strat := NewRandomAccept(cfg.AcceptRate, cfg.DropRate, cfg.AckLatency, seed)
	runFleet(ctx, fleet, cfg, strat)
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.IntVar(&cfg.Count, "count", 5, "number of technicians")
	flag.Float64Var(&cfg.AcceptRate, "accept-rate", 0.8, "probability an offer is accepted")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "probability an offer gets no reply at all")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 0, "delay before replying to an offer")
	flag.DurationVar(&cfg.Interval, "interval", 30*time.Second, "telemetry beacon interval")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 means time-based")
	flag.Float64Var(&cfg.CenterLat, "center-lat", 45.75, "service area center latitude")
	flag.Float64Var(&cfg.CenterLng, "center-lng", 4.85, "service area center longitude")
	flag.Float64Var(&cfg.RadiusKM, "radius", 20, "service area radius in km")
	flag.StringVar(&cfg.BroadcastTopic, "broadcast-topic", "dispatch/discovery", "presence ping topic")
	flag.StringVar(&cfg.ResponseTopic, "response-topic", "dispatch/discovery/response/+", "presence reply topic pattern")
	flag.StringVar(&cfg.MagicWord, "magic-word", "hello", "presence ping payload to answer")
	flag.StringVar(&cfg.AckTopic, "ack-topic", "technicians/+/ack", "offer reply topic pattern")
	flag.StringVar(&cfg.StatePrefix, "state-prefix", "telemetry/state", "telemetry beacon topic prefix")
	flag.StringVar(&cfg.PollTopic, "poll-topic", "telemetry/poll", "telemetry poll request topic")
	flag.StringVar(&cfg.PollResponseTopic, "poll-response-topic", "telemetry/response/+", "telemetry poll reply topic pattern")
	flag.StringVar(&cfg.ShiftFile, "shift-file", "", "hourly on-shift probability JSON")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	return cfg
}

func runFleet(ctx context.Context, fleet []SimulatedTechnician, cfg Config, strat OfferStrategy) {
	topics := Topics{
		Broadcast:    cfg.BroadcastTopic,
		Response:     cfg.ResponseTopic,
		Magic:        cfg.MagicWord,
		Ack:          cfg.AckTopic,
		State:        cfg.StatePrefix,
		Poll:         cfg.PollTopic,
		PollResponse: cfg.PollResponseTopic,
	}
	var wg sync.WaitGroup
	for i := range fleet {
		s := &fleet[i]
		s.Broker = cfg.Broker
		s.Strategy = strat
		s.Interval = cfg.Interval
		s.Topics = topics
		wg.Add(1)
		go func(s *SimulatedTechnician) {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				log.Printf("%s: %v", s.Tech.ID, err)
			}
		}(s)
	}
	wg.Wait()
}
