/*
 * Copyright 2026 the button-gateway authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package awa

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/neeraj2774/button-gateway/pkg/logger"
)

const (
	// DefaultAddress is the loopback address both daemons listen on.
	DefaultAddress = "127.0.0.1"

	// DefaultClientPort is the IPC port of the local (client) daemon.
	DefaultClientPort = 12345

	// DefaultServerPort is the IPC port of the remote (server) daemon.
	DefaultServerPort = 54321

	// maxDatagramSize bounds a single IPC response.
	maxDatagramSize = 64 * 1024
)

var errDaemonRejected = errors.New("daemon rejected request")

// ipcConn is one UDP connection to a daemon. Requests and responses are CBOR
// envelopes correlated by request id; a response for a different id (a stale
// reply from an earlier timed-out request) is discarded.
type ipcConn struct {
	conn    net.Conn
	timeout time.Duration
	logger  logger.Logger
	freed   bool
}

func dialIPC(address string, port int, timeout time.Duration, log logger.Logger) (*ipcConn, error) {
	conn, err := net.Dial("udp", net.JoinHostPort(address, fmt.Sprintf("%d", port)))
	if err != nil {
		return nil, fmt.Errorf("failed to dial daemon at %s:%d: %w", address, port, err)
	}

	return &ipcConn{
		conn:    conn,
		timeout: timeout,
		logger:  log,
	}, nil
}

// roundTrip sends one request and waits for its response, bounded by the
// operation timeout or the context deadline, whichever is sooner.
func (c *ipcConn) roundTrip(ctx context.Context, req *request) (*response, error) {
	if c.freed {
		return nil, ErrSessionClosed
	}

	req.RequestID = uuid.New().String()

	payload, err := encodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", req.Op, err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", req.Op, err)
	}

	buf := make([]byte, maxDatagramSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", req.Op, err)
		}

		resp, err := decodeResponse(buf[:n])
		if err != nil {
			c.logger.Warn().Err(err).Str("op", req.Op).Msg("Discarding undecodable IPC datagram")
			continue
		}

		if resp.RequestID != req.RequestID {
			c.logger.Debug().
				Str("op", req.Op).
				Str("request_id", req.RequestID).
				Str("stale_id", resp.RequestID).
				Msg("Discarding stale IPC response")

			continue
		}

		if !resp.OK {
			return resp, fmt.Errorf("%w: %s: %s", errDaemonRejected, req.Op, resp.Error)
		}

		return resp, nil
	}
}

func (c *ipcConn) free() {
	if c.freed {
		return
	}

	c.freed = true

	if err := c.conn.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Error closing IPC connection")
	}
}
