package geo

import "github.com/fieldops/dispatchd/core/factory"

var providerRegistry = factory.NewRegistry[DistanceProvider]("distance provider")

// RegisterDistanceProvider adds a distance provider factory identified by name.
func RegisterDistanceProvider(name string, f factory.Factory[DistanceProvider]) error {
	return providerRegistry.Register(name, f)
}

// NewDistanceProvider creates a DistanceProvider from the provided
// configuration. An empty type selects the planar default.
func NewDistanceProvider(cfg factory.ModuleConfig) (DistanceProvider, error) {
	if cfg.Type == "" {
		return NewPlanar(), nil
	}
	return providerRegistry.Create(cfg)
}

func init() {
	_ = RegisterDistanceProvider("planar", func(map[string]any) (DistanceProvider, error) {
		return NewPlanar(), nil
	})
	_ = RegisterDistanceProvider("haversine", func(map[string]any) (DistanceProvider, error) {
		return NewHaversine(), nil
	})
}
