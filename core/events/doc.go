// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - JobEvent: a job accepted for evaluation
//   - RecommendationEvent: the engine's ranked slate for a job
//   - ManualDispatchEvent: no technician qualified, human takes over
//   - OfferEvent: outcome of one job offer to a technician
package events
