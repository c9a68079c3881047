package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// OfferStrategy defines how a technician answers a job offer.
type OfferStrategy interface {
	Respond(ctx context.Context, cli paho.Client, ackTopic, offerID string)
}

// AutoAccept accepts every offer after an optional fixed delay.
type AutoAccept struct {
	Delay time.Duration
}

// Respond implements OfferStrategy.
func (a AutoAccept) Respond(ctx context.Context, cli paho.Client, ackTopic, offerID string) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishReply(cli, ackTopic, offerID, true)
}

// RandomAccept drops replies with DropRate probability, otherwise accepts
// with AcceptRate probability and declines the rest. A dropped reply
// exercises the dispatcher's ack timeout path, a decline its walk-down.
type RandomAccept struct {
	AcceptRate float64
	DropRate   float64
	Delay      time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAccept seeds the strategy so runs are reproducible.
func NewRandomAccept(acceptRate, dropRate float64, delay time.Duration, seed int64) *RandomAccept {
	return &RandomAccept{
		AcceptRate: acceptRate,
		DropRate:   dropRate,
		Delay:      delay,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Respond implements OfferStrategy.
func (r *RandomAccept) Respond(ctx context.Context, cli paho.Client, ackTopic, offerID string) {
	if r.DropRate > 0 && r.roll() < r.DropRate {
		return
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishReply(cli, ackTopic, offerID, r.roll() < r.AcceptRate)
}

func (r *RandomAccept) roll() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func publishReply(cli paho.Client, ackTopic, offerID string, accepted bool) {
	payload, err := json.Marshal(struct {
		OfferID  string `json:"offer_id"`
		Accepted bool   `json:"accepted"`
	}{OfferID: offerID, Accepted: accepted})
	if err != nil {
		log.Printf("marshal reply: %v", err)
		return
	}
	token := cli.Publish(ackTopic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("reply publish timeout for offer %s", offerID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish reply error for offer %s: %v", offerID, err)
	}
}
