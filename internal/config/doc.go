// Package config defines the format-agnostic configuration model of the
// continuations service, the raw file schema shared by all formats, and the
// Loader interface implemented per format.
//
// The `config.Model` is the single source of truth for the store, the
// reaper, the notifiers and the diagnostics server. Concrete loaders live in
// separate packages (hclconfig, yamlconfig).
package config
