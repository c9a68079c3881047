package history

import (
	"fmt"

	"github.com/fieldops/dispatchd/core/factory"
	"github.com/fieldops/dispatchd/core/performance"
)

// blendScorer couples the blend formula to the store it reads from so the
// service can close the database through the scorer.
type blendScorer struct {
	*performance.BlendScorer
	store *SQLiteStore
}

func (b blendScorer) Close() error { return b.store.Close() }

// init registers the store-backed blend scorer.
func init() {
	_ = performance.RegisterScorer("blend", func(conf map[string]any) (performance.Scorer, error) {
		var c struct {
			Path       string `json:"path"`
			MinSamples int    `json:"min_samples"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("history: blend scorer requires a path")
		}
		store, err := NewSQLiteStore(c.Path)
		if err != nil {
			return nil, err
		}
		s := performance.NewBlendScorer(store)
		if c.MinSamples > 0 {
			s.MinSamples = c.MinSamples
		}
		return blendScorer{BlendScorer: s, store: store}, nil
	})
}
