package actor

import "github.com/btcsuite/btclog"

// log is this package's logger instance, disabled by default until a
// caller (typically cmd/substrate-actor's main) wires a real sink via
// UseLogger, mirroring the teacher codebase's package-level-logger idiom.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by actor. Call it once
// during process startup before any ActorSystem is constructed.
func UseLogger(logger btclog.Logger) {
	log = logger
}
