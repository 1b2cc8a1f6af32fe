/*
Package log provides structured logging for irrelay using zerolog.

The package wraps a single global zerolog.Logger. Components derive child
loggers that carry a "component" field so relay output can be filtered per
stage of the pipeline:

	┌──────────────── LOGGING ────────────────┐
	│                                          │
	│  log.Init(Config)                        │
	│     │  level: debug/info/warn/error      │
	│     │  format: console (default) / JSON  │
	│     ▼                                    │
	│  log.Logger (global, run_id attached)    │
	│     │                                    │
	│     ├─ WithComponent("source")           │
	│     ├─ WithComponent("classifier")       │
	│     ├─ WithComponent("broadcast")        │
	│     └─ WithSubscriberID(3)               │
	└──────────────────────────────────────────┘

Until Init is called the global logger discards everything, which keeps
package tests quiet.

# Levels

  - debug: every raw line, heartbeat ticks, state transitions
  - info: classified events, client connects and disconnects
  - warn: dropped lines, failed client writes
  - error: startup failures and unexpected pipeline exits

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: false})
	log.WithRunID(uuid.NewString())

	logger := log.WithComponent("classifier")
	logger.Info().Str("key", ev.Name).Msg("emit")
*/
package log
