//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/pj950/ffftttt/internal/app"
)

// InitializeRuntime builds the runner and its collaborators via Wire.
// Caller must call the cleanup when done.
func InitializeRuntime(path app.ConfigPath) (*app.Runtime, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideRegistry,
		app.ProvideStrategy,
		app.ProvideCooldown,
		app.ProvideSource,
		app.ProvideFundamentals,
		app.ProvideSink,
		app.ProvideSession,
		app.ProvideAssembler,
		app.ProvideRunner,
		wire.Struct(new(app.Runtime), "Config", "Log", "Runner", "Fundamentals"),
	)
	return nil, nil, nil
}
