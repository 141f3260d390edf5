// swiplmqi - run Prolog goals against a SWI-Prolog engine over the
// machine query protocol.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/prologkit/swiplmqi/swipl"
)

var (
	configPath string
	swiplPath  string
	port       int
	password   string
	unixSocket string
	attach     bool
	trace      bool
	timeout    time.Duration
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "swiplmqi",
	Short: "Run Prolog goals against a SWI-Prolog engine",
	Long: `swiplmqi drives a SWI-Prolog process over the machine query protocol.

By default it launches swipl (which must be on the system path), runs the
given goal and shuts the engine down again. With --attach it connects to an
engine that is already running the server predicate; --port or --unix-socket
and --password must then match it.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "swiplmqi.yaml",
		"Config file with launch defaults")
	rootCmd.PersistentFlags().StringVar(&swiplPath, "swipl", "",
		"Engine binary (default: swipl from config or path)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0,
		"TCP loopback port (default: engine-chosen)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "",
		"Connection password (default: generated)")
	rootCmd.PersistentFlags().StringVar(&unixSocket, "unix-socket", "",
		"Unix domain socket path instead of TCP")
	rootCmd.PersistentFlags().BoolVar(&attach, "attach", false,
		"Connect to an already running engine instead of launching one")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false,
		"Turn on engine server tracing")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0,
		"Engine-enforced query timeout (default: none)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"Log drained engine output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(haltCmd)
}

// newServer builds a Server from the config file and flags; flags win.
func newServer() (*swipl.Server, error) {
	fileConfig, err := swipl.LoadFileConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", configPath, err)
	}

	opts := fileConfig.Options()
	if swiplPath != "" {
		opts = append(opts, swipl.WithSwiplPath(swiplPath))
	}
	if port != 0 {
		opts = append(opts, swipl.WithPort(port))
	}
	if password != "" {
		opts = append(opts, swipl.WithPassword(password))
	}
	if unixSocket != "" {
		opts = append(opts, swipl.WithUnixDomainSocket(unixSocket))
	}
	if attach {
		opts = append(opts, swipl.WithAttach())
	}
	if trace {
		opts = append(opts, swipl.WithTraces())
	}
	if !verbose {
		opts = append(opts, swipl.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	}

	return swipl.NewServer(opts...), nil
}

func printResult(result *swipl.QueryResult) {
	if result.Failed() {
		fmt.Println("false")
		return
	}
	for _, answer := range result.Answers {
		if len(answer) == 0 {
			fmt.Println("true")
			continue
		}
		for name, value := range answer {
			fmt.Printf("%s = %s\n", name, value)
		}
	}
}

// runCmd: swiplmqi run <goal>
var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Run a goal and print every solution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := newServer()
		if err != nil {
			return err
		}
		defer server.Stop()

		thread := server.NewThread()
		defer thread.Stop()

		result, err := thread.QueryWithTimeout(args[0], timeout)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

// streamCmd: swiplmqi stream <goal>
var streamCmd = &cobra.Command{
	Use:   "stream <goal>",
	Short: "Run a goal and print solutions as they are produced",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := newServer()
		if err != nil {
			return err
		}
		defer server.Stop()

		thread := server.NewThread()
		defer thread.Stop()

		if err := thread.QueryAsyncWithTimeout(args[0], false, timeout); err != nil {
			return err
		}
		for {
			result, err := thread.QueryAsyncResult(-1)
			if err != nil {
				return err
			}
			if result == nil {
				return nil
			}
			printResult(result)
		}
	},
	Args: cobra.ExactArgs(1),
}

// haltCmd: swiplmqi halt
var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Ask a running engine to shut down",
	Long:  "Halt connects to an externally launched engine and issues an orderly protocol shutdown.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		attach = true
		server, err := newServer()
		if err != nil {
			return err
		}
		thread := server.NewThread()
		defer thread.Stop()
		return thread.HaltServer()
	},
}
