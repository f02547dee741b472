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
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

// fakeDaemon answers IPC datagrams on a loopback UDP socket. The handler
// returns nil to drop a request (simulating a lost datagram).
type fakeDaemon struct {
	pc      net.PacketConn
	handler func(req *request) *response
}

func startFakeDaemon(t *testing.T, handler func(req *request) *response) (daemon *fakeDaemon, port int) {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	d := &fakeDaemon{pc: pc, handler: handler}

	go d.serve()

	t.Cleanup(func() { _ = pc.Close() })

	_, portStr, err := net.SplitHostPort(pc.LocalAddr().String())
	require.NoError(t, err)

	port, err = strconv.Atoi(portStr)
	require.NoError(t, err)

	return d, port
}

func (d *fakeDaemon) serve() {
	buf := make([]byte, maxDatagramSize)

	for {
		n, addr, err := d.pc.ReadFrom(buf)
		if err != nil {
			return
		}

		var req request
		if err := ipcDecMode.Unmarshal(buf[:n], &req); err != nil {
			continue
		}

		resp := d.handler(&req)
		if resp == nil {
			continue
		}

		if resp.RequestID == "" {
			resp.RequestID = req.RequestID
		}

		payload, err := ipcEncMode.Marshal(resp)
		if err != nil {
			continue
		}

		_, _ = d.pc.WriteTo(payload, addr)
	}
}

func okHandler(handler func(req *request) *response) func(req *request) *response {
	return func(req *request) *response {
		resp := handler(req)
		if resp == nil {
			return nil
		}

		resp.OK = true

		return resp
	}
}

func TestClientSessionLifecycle(t *testing.T) {
	var sawDisconnect bool

	_, port := startFakeDaemon(t, okHandler(func(req *request) *response {
		if req.Op == opDisconnect {
			sawDisconnect = true
		}

		return &response{}
	}))

	session, err := NewClientSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, session.Connect(ctx))
	require.NoError(t, session.Disconnect(ctx))
	assert.True(t, sawDisconnect)

	session.Free()

	// Use after free must fail, never touch the wire.
	assert.ErrorIs(t, session.Connect(ctx), ErrSessionClosed)
}

func TestClientSessionSetBoolean(t *testing.T) {
	var got *request

	_, port := startFakeDaemon(t, okHandler(func(req *request) *response {
		if req.Op == opSet {
			got = req
		}

		return &response{}
	}))

	session, err := NewClientSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	err = session.SetBoolean(context.Background(), "/3311/0/5850", true, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/3311/0/5850", got.Path)
	assert.True(t, got.BoolValue)
	assert.True(t, got.CreateInstance)
}

func TestServerSessionReadInteger(t *testing.T) {
	counter := int64(7)

	_, port := startFakeDaemon(t, okHandler(func(req *request) *response {
		if req.Op == opRead && req.ClientID == "ButtonDevice" {
			return &response{IntValue: &counter}
		}

		return &response{}
	}))

	session, err := NewServerSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	value, err := session.ReadInteger(context.Background(), "ButtonDevice", "/3200/0/5501")
	require.NoError(t, err)
	assert.Equal(t, int64(7), value)
}

func TestServerSessionReadIntegerMissingValue(t *testing.T) {
	_, port := startFakeDaemon(t, okHandler(func(*request) *response {
		return &response{}
	}))

	session, err := NewServerSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	_, err = session.ReadInteger(context.Background(), "ButtonDevice", "/3200/0/5501")
	require.ErrorIs(t, err, ErrValueMissing)
}

func TestServerSessionWriteBooleanUpdateMode(t *testing.T) {
	var got *request

	_, port := startFakeDaemon(t, okHandler(func(req *request) *response {
		if req.Op == opWrite {
			got = req
		}

		return &response{}
	}))

	session, err := NewServerSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	require.NoError(t, session.WriteBoolean(context.Background(), "LedDevice", "/3311/0/5850", false))
	require.NotNil(t, got)
	assert.Equal(t, writeModeUpdate, got.WriteMode)
	assert.Equal(t, "LedDevice", got.ClientID)
}

func TestServerSessionListClients(t *testing.T) {
	_, port := startFakeDaemon(t, okHandler(func(req *request) *response {
		if req.Op == opListClients {
			return &response{Clients: []string{"ButtonDevice", "LedDevice"}}
		}

		return &response{}
	}))

	session, err := NewServerSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	clients, err := session.ListClients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ButtonDevice", "LedDevice"}, clients)
}

func TestServerSessionDaemonError(t *testing.T) {
	_, port := startFakeDaemon(t, func(*request) *response {
		return &response{OK: false, Error: "no such client"}
	})

	session, err := NewServerSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	_, err = session.ReadInteger(context.Background(), "GoneDevice", "/3200/0/5501")
	require.ErrorContains(t, err, "no such client")
}

func TestRoundTripTimeout(t *testing.T) {
	// Handler drops every request, so the read deadline must fire.
	_, port := startFakeDaemon(t, func(*request) *response { return nil })

	session, err := NewServerSession("127.0.0.1", port, models.Duration(50*time.Millisecond), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	start := time.Now()
	err = session.Connect(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRoundTripDiscardsStaleResponses(t *testing.T) {
	calls := 0

	_, port := startFakeDaemon(t, func(req *request) *response {
		calls++

		if calls == 1 {
			// First reply carries a bogus correlation id; the session must
			// keep waiting for the real one, which never comes.
			return &response{RequestID: "stale", OK: true}
		}

		return &response{RequestID: req.RequestID, OK: true}
	})

	session, err := NewServerSession("127.0.0.1", port, models.Duration(200*time.Millisecond), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	// First request sees the stale id, times out.
	require.Error(t, session.Connect(context.Background()))

	// Second request succeeds with a matching id.
	require.NoError(t, session.Connect(context.Background()))
}

func TestIsObjectDefinedFalseOnError(t *testing.T) {
	_, port := startFakeDaemon(t, func(*request) *response {
		return &response{OK: false, Error: "lookup failed"}
	})

	session, err := NewClientSession("127.0.0.1", port, models.Duration(time.Second), logger.NewTestLogger())
	require.NoError(t, err)

	defer session.Free()

	assert.False(t, session.IsObjectDefined(context.Background(), 3311))
}
