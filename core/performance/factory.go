package performance

import "github.com/fieldops/dispatchd/core/factory"

var scorerRegistry = factory.NewRegistry[Scorer]("performance scorer")

// RegisterScorer adds a performance scorer factory identified by name.
func RegisterScorer(name string, f factory.Factory[Scorer]) error {
	return scorerRegistry.Register(name, f)
}

// NewScorer creates a Scorer from the provided configuration. An empty
// type selects the bucket default.
func NewScorer(cfg factory.ModuleConfig) (Scorer, error) {
	if cfg.Type == "" {
		return NewBucketScorer(), nil
	}
	return scorerRegistry.Create(cfg)
}

func init() {
	_ = RegisterScorer("bucket", func(conf map[string]any) (Scorer, error) {
		var c struct {
			MinSamples int     `json:"min_samples"`
			Default    float64 `json:"default_score"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		s := NewBucketScorer()
		if c.MinSamples > 0 {
			s.MinSamples = c.MinSamples
		}
		if c.Default > 0 {
			s.Default = c.Default
		}
		return s, nil
	})
}
