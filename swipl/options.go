package swipl

import (
	"log/slog"
	"time"
)

// ServerConfig holds launch and connection settings for a Server.
type ServerConfig struct {
	Logger *slog.Logger

	// SwiplPath is the engine binary, located on the search path when
	// not absolute (default "swipl").
	SwiplPath string

	// ScriptPath optionally names a source file providing the server
	// predicate. When empty the engine's bundled library is loaded.
	ScriptPath string

	// Port is the TCP loopback port. Zero lets the engine pick one and
	// announce it on stdout. Ignored when UnixDomainSocket is set.
	Port int

	// Password is the connection secret. Empty generates a strong one
	// at launch. Must be set when attaching to an external engine.
	Password string

	// UnixDomainSocket, when set, replaces TCP loopback with the named
	// socket file.
	UnixDomainSocket string

	// QueryTimeout is the engine-side default time budget for every
	// query. Zero means no default timeout.
	QueryTimeout time.Duration

	// PendingConnections is the server's listen backlog. Zero keeps the
	// engine default.
	PendingConnections int

	// OutputFile redirects all engine output to a file instead of the
	// logging sink.
	OutputFile string

	// HaltOnConnectionFailure makes the engine halt itself when a
	// client thread disappears unexpectedly.
	HaltOnConnectionFailure bool

	// Traces turns on the engine's own server tracing.
	Traces bool

	// Launch controls whether Start spawns an engine process. When
	// false the Server attaches to one already running the server
	// predicate; Port or UnixDomainSocket and Password must match it.
	Launch bool

	// ExtraArgs are appended to the engine command line verbatim.
	ExtraArgs []string
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*ServerConfig)

// WithPort fixes the TCP loopback port instead of letting the engine
// choose one.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithPassword fixes the connection password instead of generating one.
func WithPassword(password string) ServerOption {
	return func(c *ServerConfig) {
		c.Password = password
	}
}

// WithUnixDomainSocket communicates over the named socket file instead
// of TCP loopback. See UnixSocketPath for generating a suitable name.
func WithUnixDomainSocket(path string) ServerOption {
	return func(c *ServerConfig) {
		c.UnixDomainSocket = path
	}
}

// WithQueryTimeout sets the engine-side default time budget for every
// query.
func WithQueryTimeout(d time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.QueryTimeout = d
	}
}

// WithPendingConnections sets the server's listen backlog.
func WithPendingConnections(n int) ServerOption {
	return func(c *ServerConfig) {
		c.PendingConnections = n
	}
}

// WithHaltOnConnectionFailure controls whether the engine halts itself
// when a client thread disappears unexpectedly (default true).
func WithHaltOnConnectionFailure(halt bool) ServerOption {
	return func(c *ServerConfig) {
		c.HaltOnConnectionFailure = halt
	}
}

// WithOutputFile redirects all engine output to a file.
func WithOutputFile(path string) ServerOption {
	return func(c *ServerConfig) {
		c.OutputFile = path
	}
}

// WithTraces turns on the engine's server tracing.
func WithTraces() ServerOption {
	return func(c *ServerConfig) {
		c.Traces = true
	}
}

// WithAttach connects to an engine that was launched externally instead
// of spawning one. The password and the port or socket path must be
// supplied to match it.
func WithAttach() ServerOption {
	return func(c *ServerConfig) {
		c.Launch = false
	}
}

// WithSwiplPath sets a custom engine binary (default "swipl").
func WithSwiplPath(path string) ServerOption {
	return func(c *ServerConfig) {
		c.SwiplPath = path
	}
}

// WithScriptPath loads the server predicate from a source file instead
// of the engine's bundled library.
func WithScriptPath(path string) ServerOption {
	return func(c *ServerConfig) {
		c.ScriptPath = path
	}
}

// WithExtraArgs appends extra engine command line arguments (escape
// hatch).
func WithExtraArgs(args ...string) ServerOption {
	return func(c *ServerConfig) {
		c.ExtraArgs = args
	}
}

// WithLogger sets the sink for drained engine output lines.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *ServerConfig) {
		c.Logger = logger
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() ServerConfig {
	return ServerConfig{
		SwiplPath:               "swipl",
		Launch:                  true,
		HaltOnConnectionFailure: true,
	}
}
