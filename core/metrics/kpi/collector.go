package kpi

import (
	"context"
	"time"

	"github.com/fieldops/dispatchd/core/events"
	"github.com/fieldops/dispatchd/internal/eventbus"
)

// StartCollector subscribes to the event bus and accumulates dispatch KPIs
// into the store. It stops when the context is canceled.
func StartCollector(ctx context.Context, bus eventbus.EventBus, store Store) {
	if bus == nil || store == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.RecommendationEvent:
					if e.AssignedID == "" {
						continue
					}
					_ = store.Add(Record{
						TechnicianID: e.AssignedID,
						Date:         Day(time.Now()),
						Assignments:  1,
					})
				case events.OfferEvent:
					rec := Record{
						TechnicianID: e.TechnicianID,
						Date:         Day(time.Now()),
						Offers:       1,
					}
					if e.Accepted {
						rec.Acceptances = 1
					}
					_ = store.Add(rec)
				}
			}
		}
	}()
}
