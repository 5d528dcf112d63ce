package main

import (
	"context"

	"github.com/parley-chat/parley/internal/observability"
)

// CheckDeps contains injectable dependencies for the plugins check
// command. All fields with nil values will use their default
// implementations.
type CheckDeps struct {
	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// ObservabilityServer interface wraps the methods used from
// observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
