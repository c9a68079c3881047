// Package plugins pulls in every built-in module factory. Importing it
// registers the infra-side distance providers, performance scorers and
// metrics sinks; the core registries self-register on import.
package plugins

import (
	_ "github.com/fieldops/dispatchd/infra/history"
	_ "github.com/fieldops/dispatchd/infra/metrics"
	_ "github.com/fieldops/dispatchd/infra/routing"
)
