// Command substrate-actor is a thin demonstration harness around the
// actorcore runtime. It is not part of the runtime itself (§1 scopes the
// CLI out of the core) — it only wires up logging and an ActorSystem and
// then hands off to cobra subcommands that exercise the core's public
// API.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/btcsuite/btclog"

	"github.com/go-actors/actorcore/cmd/substrate-actor/commands"
	"github.com/go-actors/actorcore/internal/actor"
	"github.com/go-actors/actorcore/internal/build"
)

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logDir := expandHome(os.Getenv("ACTORCORE_LOG_DIR"))

	var btclogHandlers []btclog.Handler
	btclogHandlers = append(btclogHandlers, btclog.NewDefaultHandler(os.Stderr))

	var logWriter *build.RotatingLogWriter
	if logDir != "" {
		logWriter = build.NewRotatingLogWriter()
		cfg := build.DefaultLogRotatorConfig()
		cfg.LogDir = logDir
		cfg.Filename = "substrate-actor.log"
		if err := logWriter.InitLogRotator(cfg); err != nil {
			return fmt.Errorf("init log rotator: %w", err)
		}
		defer logWriter.Close()
		btclogHandlers = append(
			btclogHandlers, btclog.NewDefaultHandler(logWriter),
		)
	}

	combinedHandler := build.NewHandlerSet(btclogHandlers...)
	combinedHandler.SetLevel(btclog.LevelInfo)

	actorLogger := btclog.NewSLogger(combinedHandler)
	actor.UseLogger(actorLogger)

	rootLogger := actorLogger.WithPrefix("MAIN")
	rootLogger.Infof("substrate-actor %s (commit %s, go %s)",
		build.Version, build.CommitInfo(), build.GoVersion)

	sys := actor.NewActorSystem()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		rootLogger.Info("received shutdown signal, stopping actor system")
		go func() {
			<-sigCh
			rootLogger.Warn("received second shutdown signal, forcing exit")
			os.Exit(1)
		}()
		_ = sys.Shutdown(commands.ShutdownContext())
	}()

	commands.SetSystem(sys)
	return commands.Execute()
}
