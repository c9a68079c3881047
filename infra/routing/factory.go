package routing

import (
	"github.com/fieldops/dispatchd/core/factory"
	"github.com/fieldops/dispatchd/core/geo"
)

// init registers the drive-time provider.
func init() {
	_ = geo.RegisterDistanceProvider("drivetime", func(conf map[string]any) (geo.DistanceProvider, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewClient(c)
	})
}
