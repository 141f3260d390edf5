package swipl

import (
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prologkit/swiplmqi/internal/framing"
)

const testPassword = "test-password"

// Canned reply payloads in the engine's wire shape.
const (
	ackPayload  = `{"functor":"true","args":[[[{"functor":"threads","args":["comm1","goal1"]}]]]}`
	truePayload = `{"functor":"true","args":[[[]]]}`
	endPayload  = `{"functor":"exception","args":["no_more_results"]}`
)

func exceptionPayload(atom string) string {
	return `{"functor":"exception","args":["` + atom + `"]}`
}

func bindingPayload(variable, value string) string {
	return `{"functor":"true","args":[[[{"functor":"=","args":["` + variable + `","` + value + `"]}]]]}`
}

// fakeEngine speaks the framed machine query protocol from an
// in-process TCP listener, standing in for a running engine. Each
// accepted connection authenticates against testPassword and then
// answers requests through the scripted reply function. A reply of ""
// or keep=false drops the connection, which is how engine-side death is
// simulated.
type fakeEngine struct {
	listener net.Listener
	reply    func(req string) (payload string, keep bool)

	mu       sync.Mutex
	requests []string
}

func newFakeEngine(t *testing.T, reply func(req string) (string, bool)) *fakeEngine {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	e := &fakeEngine{listener: listener, reply: reply}
	go e.serve()
	t.Cleanup(func() { listener.Close() })
	return e
}

func (e *fakeEngine) port() int {
	return e.listener.Addr().(*net.TCPAddr).Port
}

// Requests returns every request body received so far, without the
// trailing ".\n" terminator.
func (e *fakeEngine) Requests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

func (e *fakeEngine) serve() {
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			return
		}
		go e.handle(conn)
	}
}

func (e *fakeEngine) handle(raw net.Conn) {
	defer raw.Close()
	conn := framing.New(raw)

	password, err := conn.Receive()
	if err != nil {
		return
	}
	if strings.TrimSuffix(password, ".\n") != testPassword {
		_ = conn.Send(exceptionPayload("password_mismatch"))
		return
	}
	if err := conn.Send(ackPayload); err != nil {
		return
	}

	for {
		req, err := conn.Receive()
		if err != nil {
			return
		}
		req = strings.TrimSuffix(req, ".\n")
		e.mu.Lock()
		e.requests = append(e.requests, req)
		e.mu.Unlock()

		payload, keep := e.reply(req)
		if payload == "" {
			return
		}
		if err := conn.Send(payload); err != nil {
			return
		}
		if !keep {
			return
		}
	}
}

// attachedServer returns a Server attached to the fake engine.
func attachedServer(t *testing.T, engine *fakeEngine, opts ...ServerOption) *Server {
	t.Helper()
	base := []ServerOption{
		WithAttach(),
		WithPort(engine.port()),
		WithPassword(testPassword),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewServer(append(base, opts...)...)
}

// alwaysTrue answers every request with a solutionless success.
func alwaysTrue(string) (string, bool) {
	return truePayload, true
}
