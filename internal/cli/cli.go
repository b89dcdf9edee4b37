package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/webcont/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("webcont", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
webcont - An expiring store of web continuations with a diagnostics server.

Usage:
  webcont [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Optional .hcl file, directory of .hcl files, or .yaml/.yml file.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration file or directory (shorthand).")
	envFileFlag := flagSet.String("env-file", "", "Dotenv file loaded into the environment before the configuration.")
	listenPortFlag := flagSet.Int("listen-port", -1, "Port for the health and diagnostics HTTP server. 0 disables it, -1 keeps the configured value.")
	defaultTTLFlag := flagSet.Duration("default-ttl", 0, "Time-to-live for continuations created without one. 0 keeps the configured value.")
	intervalFlag := flagSet.Duration("reaper-interval", 0, "Period between expiry passes. 0 keeps the configured value.")
	policyFlag := flagSet.String("reaper-policy", "", "Expiry policy: 'cascade' or 'retain'. Empty keeps the configured value.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", flagSet.Args()[1:])}
	}
	slog.Debug("Config path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *listenPortFlag > 65535 || *listenPortFlag < -1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid listen-port: %d", *listenPortFlag)}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:     path,
		EnvFile:        *envFileFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		ListenPort:     *listenPortFlag,
		DefaultTTL:     *defaultTTLFlag,
		ReaperInterval: *intervalFlag,
		ReaperPolicy:   strings.ToLower(*policyFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
