// Package commands implements the substrate-actor CLI's subcommands. None
// of this package is part of the actorcore runtime (§1 explicitly scopes
// the CLI/examples out of the core) — it only exercises the public API.
package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-actors/actorcore/internal/actor"
)

var system *actor.ActorSystem

// SetSystem installs the ActorSystem subcommands run against. Called once
// by main before Execute.
func SetSystem(sys *actor.ActorSystem) {
	system = sys
}

// ShutdownContext returns a context bounded to a generous grace period for
// main's signal handler to call ActorSystem.Shutdown with.
func ShutdownContext() context.Context {
	ctx, _ := context.WithTimeout(context.Background(), 10*time.Second) //nolint:lostcancel
	return ctx
}

var rootCmd = &cobra.Command{
	Use:   "substrate-actor",
	Short: "Demonstration harness for the actorcore runtime",
	Long: `substrate-actor spins up an actorcore ActorSystem and runs a
handful of scenarios against it (echo request/response, priority
preemption, monitor notifications) so the runtime's behavior can be
observed outside of its test suite.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
