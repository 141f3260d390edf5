package swipl

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prologkit/swiplmqi/internal/procattr"
)

// reapTimeout bounds the wait for the engine process to exit after an
// orderly protocol halt before the process group is killed.
const reapTimeout = 5 * time.Second

// Server owns at most one engine process and the connection parameters
// its Threads use: address (TCP loopback port or unix socket path) and
// password. Communication only works on the local machine; the engine
// is driven like a library, not a shared network service.
//
// The failure flag is the single piece of state shared across a
// handle's Threads: once any Thread observes the engine is gone, all
// later shutdown paths degrade to a forceful kill.
type Server struct {
	config ServerConfig
	cmd    *exec.Cmd

	mu               sync.Mutex
	started          bool
	tracesEnabled    bool
	connectionFailed bool
}

// NewServer creates a Server with options. Nothing is launched until
// Start, or until the first Thread starts.
func NewServer(opts ...ServerOption) *Server {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{config: config}
}

// NewThread creates a Thread bound to this server. The thread connects
// on its first use or an explicit Thread.Start.
func (s *Server) NewThread() *Thread {
	return &Thread{server: s}
}

// Start launches the engine process and discovers its connection
// values, or validates the supplied ones when attaching. Idempotent.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	err := s.startLocked(ctx)
	enableTraces := err == nil && s.config.Traces && s.config.Launch && !s.tracesEnabled
	if enableTraces {
		s.tracesEnabled = true
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if enableTraces {
		thread := s.NewThread()
		defer thread.Stop()
		if _, err := thread.Query("debug(prologServer(_))"); err != nil {
			return fmt.Errorf("enabling server traces: %w", err)
		}
	}
	return nil
}

func (s *Server) startLocked(ctx context.Context) error {
	if s.started {
		return nil
	}

	if !s.config.Launch {
		if s.config.Password == "" {
			return &LaunchError{Message: "attaching requires a password"}
		}
		if s.config.Port == 0 && s.config.UnixDomainSocket == "" {
			return &LaunchError{Message: "attaching requires a port or unix domain socket"}
		}
		s.started = true
		return nil
	}

	if s.config.Password == "" {
		s.config.Password = uuid.NewString()
	}

	cmd := exec.Command(s.config.SwiplPath, s.BuildArgs()...)
	procattr.Set(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &LaunchError{Message: "cannot create stdout pipe", Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &LaunchError{Message: "cannot create stderr pipe", Cause: err}
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &EngineNotFoundError{Path: s.config.SwiplPath, Cause: err}
		}
		return &LaunchError{Message: "cannot start engine process", Cause: err}
	}

	// Drain stderr immediately so early engine errors surface in the log.
	go s.drain("stderr", stderr)

	// The engine announces its chosen port (unless a unix socket is
	// used) and the password as the first stdout lines, before any
	// framed protocol traffic.
	reader := bufio.NewReader(stdout)
	if s.config.UnixDomainSocket == "" {
		line, err := readAnnouncedLine(reader)
		if err != nil {
			s.killProcess(cmd)
			return &LaunchError{Message: "no port announced on stdout", Cause: err}
		}
		port, err := strconv.Atoi(line)
		if err != nil {
			s.killProcess(cmd)
			return &LaunchError{Message: "invalid port announced on stdout: " + line, Cause: err}
		}
		s.config.Port = port
	}
	line, err := readAnnouncedLine(reader)
	if err != nil {
		s.killProcess(cmd)
		return &LaunchError{Message: "no password announced on stdout", Cause: err}
	}
	s.config.Password = line

	// Anything else the engine prints is diagnostic output.
	go s.drain("stdout", reader)

	s.cmd = cmd
	s.started = true
	return nil
}

// BuildArgs returns the engine command line for the configured options.
// Can be called before Start to inspect the exact invocation.
func (s *Server) BuildArgs() []string {
	options := []string{
		fmt.Sprintf("halt_on_connection_failure(%t)", s.config.HaltOnConnectionFailure),
	}
	if s.config.PendingConnections > 0 {
		options = append(options, fmt.Sprintf("pending_connections(%d)", s.config.PendingConnections))
	}
	if s.config.QueryTimeout > 0 {
		options = append(options, fmt.Sprintf("query_timeout(%s)", formatSeconds(s.config.QueryTimeout)))
	}
	if s.config.Password != "" {
		options = append(options, fmt.Sprintf("password('%s')", s.config.Password))
	}
	if s.config.OutputFile != "" {
		options = append(options, fmt.Sprintf("write_output_to_file('%s')", s.config.OutputFile))
	}
	if s.config.Port > 0 {
		options = append(options, fmt.Sprintf("port(%d)", s.config.Port))
	}
	if s.config.UnixDomainSocket != "" {
		options = append(options, fmt.Sprintf("unix_domain_socket('%s')", s.config.UnixDomainSocket))
	}

	goal := fmt.Sprintf(
		"language_server([write_connection_values(true), run_server_on_thread(false), ignore_sig_int(true), %s])",
		strings.Join(options, ","))
	if s.config.ScriptPath == "" {
		goal = "use_module(library(language_server)), " + goal
	}

	args := []string{"--quiet"}
	if s.config.ScriptPath != "" {
		args = append(args, "-s", s.config.ScriptPath)
	}
	args = append(args, "-g", goal, "-t", "halt")
	args = append(args, s.config.ExtraArgs...)
	return args
}

// Stop shuts the engine down and reaps the process. The orderly path
// asks the engine to halt over the protocol; once the failure flag is
// set that exchange is presumed impossible and the process group is
// killed outright. Does nothing when attached to an external engine.
func (s *Server) Stop() error {
	s.mu.Lock()
	cmd := s.cmd
	failed := s.connectionFailed
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if failed {
		return s.Kill()
	}

	thread := s.NewThread()
	err := thread.HaltServer()
	thread.Stop()
	if err != nil {
		return s.Kill()
	}

	s.reap(cmd)
	s.cleanup()
	return nil
}

// Kill terminates the engine process group immediately.
func (s *Server) Kill() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}
	s.killProcess(cmd)
	s.cleanup()
	return nil
}

func (s *Server) killProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = procattr.KillGroup(cmd.Process)
	}
	_ = cmd.Wait()
}

// reap waits for the engine to exit after an orderly halt, with a group
// kill fallback if it lingers.
func (s *Server) reap(cmd *exec.Cmd) {
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-done:
		return
	case <-time.After(reapTimeout):
	}

	if cmd.Process != nil {
		_ = procattr.KillGroup(cmd.Process)
	}
	<-done
}

// cleanup deletes the unix socket file, if any. File absence or
// permission errors are swallowed.
func (s *Server) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.UnixDomainSocket != "" {
		_ = os.Remove(s.config.UnixDomainSocket)
	}
	s.cmd = nil
	s.started = false
	s.tracesEnabled = false
}

// Pid returns the engine process id, or 0 when no process is owned.
func (s *Server) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// ConnectionFailed reports whether any Thread has observed that the
// engine is gone. Once set it never resets; all shutdown paths then
// skip the graceful protocol exchange.
func (s *Server) ConnectionFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectionFailed
}

func (s *Server) markConnectionFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectionFailed = true
}

// dial opens the byte-stream connection a Thread runs its framed
// protocol over.
func (s *Server) dial(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	network, address := "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(s.config.Port))
	if s.config.UnixDomainSocket != "" {
		network, address = "unix", s.config.UnixDomainSocket
	}
	s.mu.Unlock()

	var dialer net.Dialer
	return dialer.DialContext(ctx, network, address)
}

func (s *Server) password() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Password
}

// drain forwards engine output lines to the logging sink. No protocol
// data flows through these streams once the connection values have been
// consumed.
func (s *Server) drain(stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.config.Logger.Info(scanner.Text(), "source", "prolog", "stream", stream)
	}
}

// readAnnouncedLine reads one newline-terminated connection value from
// the engine's stdout.
func readAnnouncedLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty line")
	}
	return line, nil
}

// UnixSocketPath returns an unpredictable socket filename inside dir,
// suitable for WithUnixDomainSocket. Keep dir short: the whole path
// must stay under the 92-byte portable limit for unix socket paths.
func UnixSocketPath(dir string) string {
	id := uuid.New()
	return filepath.Join(dir, "sock"+hex.EncodeToString(id[:]))
}
