// Package framing implements the length-prefixed message framing used
// by the machine query protocol. Every message, in both directions, is
// a decimal byte count terminated by ".\n" followed by exactly that
// many UTF-8 bytes, e.g. "7.\n" then "hello.\n".
package framing

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Conn frames messages over a byte-stream connection.
type Conn struct {
	conn net.Conn
	buf  []byte
	r    io.Reader
}

// New wraps a stream connection. The Conn takes ownership of it.
func New(conn net.Conn) *Conn {
	return &Conn{conn: conn, r: conn}
}

// Send normalizes msg to the canonical ".\n" terminator and writes it
// with a length header. Whitespace and any trailing dots or newlines
// are stripped first, so callers may pass "quit", "quit." or "quit.\n"
// interchangeably.
func (c *Conn) Send(msg string) error {
	body := strings.TrimSpace(msg)
	body = strings.TrimRight(body, ".\n")
	body += ".\n"
	payload := []byte(body)
	header := fmt.Sprintf("%d.\n", len(payload))
	if _, err := c.conn.Write([]byte(header)); err != nil {
		return err
	}
	_, err := c.conn.Write(payload)
	return err
}

// Receive reads one complete framed message, however fragmented the
// underlying reads are. Bare "." bytes before the header newline are
// heartbeats and are discarded. Returns an error if the connection
// closes before the declared byte count arrives.
func (c *Conn) Receive() (string, error) {
	length := 0
	digits := 0
header:
	for {
		b, err := c.readByte()
		if err != nil {
			return "", err
		}
		switch {
		case b == '.':
			// heartbeat, or the dot terminating the length
		case b == '\n':
			if digits == 0 {
				return "", errors.New("frame header has no length")
			}
			break header
		case b >= '0' && b <= '9':
			length = length*10 + int(b-'0')
			digits++
		default:
			return "", fmt.Errorf("unexpected byte %q in frame header", b)
		}
	}

	// Bytes already read past the header newline seed the body.
	body := make([]byte, length)
	n := copy(body, c.buf)
	c.buf = c.buf[n:]
	if n < length {
		if _, err := io.ReadFull(c.r, body[n:]); err != nil {
			return "", fmt.Errorf("connection closed mid-message: %w", err)
		}
	}
	return string(body), nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// readByte pulls one byte, buffering whatever the last read returned so
// bytes past the header newline seed the body.
func (c *Conn) readByte() (byte, error) {
	if len(c.buf) == 0 {
		chunk := make([]byte, 4096)
		n, err := c.r.Read(chunk)
		if n == 0 {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		c.buf = chunk[:n]
	}
	b := c.buf[0]
	c.buf = c.buf[1:]
	return b, nil
}
