//go:build wireinject
// +build wireinject

// Package wiring assembles the long-lived process graph — schema,
// id allocator, backend connections, workers, and the router — the
// same way the teacher's sinktest/base and source/cdc packages use
// google/wire: a build-tagged injector file describing the graph, plus
// a hand-maintained wire_gen.go actually compiled into the binary.
package wiring

import (
	"context"

	"github.com/google/wire"

	"github.com/K0n4ta13/tesebada/internal/config"
	"github.com/K0n4ta13/tesebada/internal/router"
)

// NewCoordinator builds a fully wired router.Coordinator from cfg: it
// loads and compiles the schema document, opens one backend connection
// per distinct fragment connection string, starts one worker goroutine
// per fragment, and returns the Coordinator along with a cleanup
// function that stops every worker and persists the id allocator.
func NewCoordinator(ctx context.Context, cfg *config.Config) (*router.Coordinator, func(), error) {
	wire.Build(
		ProvideCatalog,
		ProvideAllocator,
		ProvideStopper,
		ProvideConnections,
		ProvideHandles,
		ProvideCoordinator,
	)
	return nil, nil, nil
}
