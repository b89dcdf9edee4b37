// Package app contains the service wiring. It builds the continuation store,
// the expiry reaper, the lifecycle notifiers and the diagnostics server from
// the loaded configuration and runs them until the context is cancelled,
// decoupled from any specific entrypoint like a CLI.
package app
