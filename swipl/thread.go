package swipl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prologkit/swiplmqi/internal/framing"
	"github.com/prologkit/swiplmqi/term"
)

// threadState is the client-side protocol state. Tracking it locally
// lets misuse (retrieving results with nothing running) fail fast
// instead of relying on the engine to reject it.
type threadState int

const (
	threadIdle threadState = iota
	threadAsyncPending
	threadClosed
)

// Thread runs queries on a single engine-side logical thread. A Thread
// is bound to one engine thread for its entire lifetime and serializes
// every query issued through it; create several Threads on the same
// Server to run concurrent goals.
//
// All methods block until the engine replies. There is no client-side
// timeout layer: timeouts are carried in the request and enforced by
// the engine.
type Thread struct {
	server *Server
	conn   *framing.Conn
	state  threadState

	// Engine-assigned identifiers, captured once from the start
	// acknowledgement.
	CommunicationThreadID string
	GoalThreadID          string

	mu sync.Mutex
}

// Start connects to the server and opens the engine-side thread,
// launching the engine process first if the Server has not started yet.
// It is a no-op if already connected. The context bounds connection
// setup only.
func (t *Thread) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startLocked(ctx)
}

func (t *Thread) startLocked(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	if t.state == threadClosed {
		return ErrThreadClosed
	}

	if err := t.server.Start(ctx); err != nil {
		return err
	}

	raw, err := t.server.dial(ctx)
	if err != nil {
		return &LaunchError{Message: "cannot connect to engine", Cause: err}
	}
	conn := framing.New(raw)

	// The password is always the first frame on a new connection.
	if err := conn.Send(t.server.password()); err != nil {
		conn.Close()
		return &LaunchError{Message: "cannot send password", Cause: err}
	}
	payload, err := conn.Receive()
	if err != nil {
		conn.Close()
		return &LaunchError{Message: "no authentication reply", Cause: err}
	}
	ack, err := term.Decode([]byte(strings.TrimSuffix(payload, ".\n")))
	if err != nil {
		conn.Close()
		return &LaunchError{Message: "malformed authentication reply", Cause: err}
	}
	if ack.Name() != "true" {
		conn.Close()
		return &LaunchError{Message: "password rejected: " + ack.String(), Detail: ack}
	}

	comm, goal, ok := threadIDs(ack)
	if !ok {
		conn.Close()
		return &LaunchError{Message: "acknowledgement missing thread ids: " + ack.String(), Detail: ack}
	}
	t.CommunicationThreadID = comm
	t.GoalThreadID = goal
	t.conn = conn
	t.state = threadIdle
	return nil
}

// threadIDs pulls the two engine thread ids out of a start
// acknowledgement shaped true([[threads(CommID, GoalID)]]).
func threadIDs(ack term.Term) (comm, goal string, ok bool) {
	args := ack.Args()
	if len(args) == 0 || len(args[0].Args()) == 0 {
		return "", "", false
	}
	first := args[0].Args()[0]
	if len(first.Args()) == 0 {
		return "", "", false
	}
	threads := first.Args()[0]
	ids := threads.Args()
	if len(ids) != 2 {
		return "", "", false
	}
	return ids[0].Name(), ids[1].Name(), true
}

// Query runs a goal and waits for every solution, as if run under
// findall, using the engine's default time budget.
func (t *Thread) Query(goal string) (*QueryResult, error) {
	return t.QueryWithTimeout(goal, 0)
}

// QueryWithTimeout runs a goal with an engine-enforced timeout. A zero
// timeout uses the engine's default.
func (t *Thread) QueryWithTimeout(goal string, timeout time.Duration) (*QueryResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.startLocked(context.Background()); err != nil {
		return nil, err
	}
	req := fmt.Sprintf("run((%s), %s).\n", normalizeGoal(goal), timeoutArg(timeout))
	return t.exchangeLocked(req)
}

// QueryAsync starts a goal and returns once the engine accepts it,
// without waiting for it to finish. With findAll, the engine computes
// the whole solution set and one QueryAsyncResult call delivers it;
// otherwise solutions arrive one per call. If a previous async query on
// this thread is still executing, the engine queues the new goal behind
// it.
func (t *Thread) QueryAsync(goal string, findAll bool) error {
	return t.QueryAsyncWithTimeout(goal, findAll, 0)
}

// QueryAsyncWithTimeout is QueryAsync with an engine-enforced timeout.
func (t *Thread) QueryAsyncWithTimeout(goal string, findAll bool, timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.startLocked(context.Background()); err != nil {
		return err
	}
	req := fmt.Sprintf("run_async((%s), %s, %t).\n", normalizeGoal(goal), timeoutArg(timeout), findAll)
	if _, err := t.exchangeLocked(req); err != nil {
		return err
	}
	t.state = threadAsyncPending
	return nil
}

// QueryAsyncResult retrieves the next result of the active async query.
// It returns (nil, nil) exactly once when all results have been
// delivered. A negative wait blocks until a result is available; zero
// polls without waiting and a bounded wait raises a retriable
// result-not-available error when nothing arrives in time.
//
// Keep calling until the nil end marker or a terminal error, even after
// a timeout or cancellation, to fully drain the query's outcome.
func (t *Thread) QueryAsyncResult(wait time.Duration) (*QueryResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == threadClosed {
		return nil, ErrThreadClosed
	}
	if t.state != threadAsyncPending {
		return nil, noQueryError()
	}
	req := fmt.Sprintf("async_result(%s).\n", waitArg(wait))
	result, err := t.exchangeLocked(req)
	if err != nil {
		// Every exception except result_not_available ends the query.
		if !IsResultNotAvailable(err) && t.state == threadAsyncPending {
			t.state = threadIdle
		}
		return nil, err
	}
	if result == nil {
		t.state = threadIdle
	}
	return result, nil
}

// CancelQueryAsync asks the engine to interrupt the running goal
// without killing its thread. It is best effort: the goal may catch the
// signal, finish, or time out first. Continue draining with
// QueryAsyncResult to observe the actual outcome.
func (t *Thread) CancelQueryAsync() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == threadClosed {
		return ErrThreadClosed
	}
	if t.state != threadAsyncPending {
		return noQueryError()
	}
	_, err := t.exchangeLocked("cancel_async.\n")
	return err
}

// HaltServer performs an orderly engine shutdown via the protocol and
// marks the owning Server failed so later shutdown paths skip the
// graceful exchange against a process that is already gone.
func (t *Thread) HaltServer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.startLocked(context.Background()); err != nil {
		return err
	}
	if _, err := t.exchangeLocked("quit.\n"); err != nil {
		return err
	}
	t.server.markConnectionFailed()
	return nil
}

// Stop ends the engine-side thread and closes the connection. If a
// query is still executing the engine treats the disconnect as an abort
// of the goal. A clean close handshake is attempted first unless the
// Server is already marked failed; its errors are swallowed. Safe to
// call more than once.
func (t *Thread) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		t.state = threadClosed
		return nil
	}
	if !t.server.ConnectionFailed() {
		// Best effort: a clean exit keeps the server running for the
		// handle's other threads.
		if err := t.conn.Send("close.\n"); err == nil {
			_, _ = t.conn.Receive()
		}
	}
	_ = t.conn.Close()
	t.conn = nil
	t.state = threadClosed
	return nil
}

// exchangeLocked performs one request/reply round trip. Transport
// failures and protocol violations mark the Server failed, close the
// connection and surface as a connection-failed Error; decoded
// connection_failed exceptions do the same.
func (t *Thread) exchangeLocked(request string) (*QueryResult, error) {
	if t.conn == nil {
		return nil, ErrThreadClosed
	}
	if err := t.conn.Send(request); err != nil {
		return nil, t.failConnection(err)
	}
	payload, err := t.conn.Receive()
	if err != nil {
		return nil, t.failConnection(err)
	}
	result, err := decodeResponse(payload)
	if err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			return nil, t.failConnection(err)
		}
		if pe.Kind == ExceptionConnectionFailed {
			t.server.markConnectionFailed()
			t.closeTransportLocked()
		}
		return nil, err
	}
	return result, nil
}

func (t *Thread) failConnection(cause error) error {
	t.server.markConnectionFailed()
	t.closeTransportLocked()
	return &Error{
		Kind:  ExceptionConnectionFailed,
		Term:  term.Text("connection_failed"),
		Cause: cause,
	}
}

func (t *Thread) closeTransportLocked() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.state = threadClosed
}

func noQueryError() error {
	return &Error{Kind: ExceptionNoQuery, Term: term.Text("no_query")}
}

// normalizeGoal strips whitespace and any trailing dots or newlines so
// the goal embeds cleanly in the request term.
func normalizeGoal(goal string) string {
	goal = strings.TrimSpace(goal)
	return strings.TrimRight(goal, ".\n")
}

// timeoutArg renders a query timeout: the engine sentinel "_" means
// "use the server default".
func timeoutArg(timeout time.Duration) string {
	if timeout <= 0 {
		return "_"
	}
	return formatSeconds(timeout)
}

// waitArg renders a result poll timeout: -1 means wait indefinitely.
func waitArg(wait time.Duration) string {
	if wait < 0 {
		return "-1"
	}
	return formatSeconds(wait)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
