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
	"time"

	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

const defaultOperationTimeout = 5 * time.Second

func timeoutOrDefault(timeout models.Duration) time.Duration {
	if timeout == 0 {
		return defaultOperationTimeout
	}

	return time.Duration(timeout)
}

// serverSession is the concrete ServerSession over the UDP IPC transport.
type serverSession struct {
	conn      *ipcConn
	connected bool
	logger    logger.Logger
}

// NewServerSession creates a session to the remote daemon. The session is not
// connected until Connect is called.
func NewServerSession(address string, port int, timeout models.Duration, log logger.Logger) (ServerSession, error) {
	conn, err := dialIPC(address, port, timeoutOrDefault(timeout), log)
	if err != nil {
		return nil, err
	}

	return &serverSession{conn: conn, logger: log}, nil
}

func (s *serverSession) Connect(ctx context.Context) error {
	if s.conn.freed {
		return ErrSessionClosed
	}

	if _, err := s.conn.roundTrip(ctx, &request{Op: opConnect}); err != nil {
		return err
	}

	s.connected = true

	return nil
}

func (s *serverSession) Disconnect(ctx context.Context) error {
	if s.conn.freed {
		return ErrSessionClosed
	}

	if !s.connected {
		return ErrNotConnected
	}

	s.connected = false

	_, err := s.conn.roundTrip(ctx, &request{Op: opDisconnect})

	return err
}

func (s *serverSession) Free() {
	s.connected = false
	s.conn.free()
}

func (s *serverSession) IsObjectDefined(ctx context.Context, objectID int) bool {
	resp, err := s.conn.roundTrip(ctx, &request{Op: opObjectDefined, ObjectID: objectID})
	if err != nil {
		s.logger.Debug().Err(err).Int("object_id", objectID).Msg("Object definition lookup failed on server")
		return false
	}

	return resp.Defined
}

func (s *serverSession) Define(ctx context.Context, objects []models.ObjectDescriptor) error {
	_, err := s.conn.roundTrip(ctx, &request{Op: opDefine, Objects: objects})
	return err
}

func (s *serverSession) IsResourceDefined(ctx context.Context, path string) bool {
	if _, _, _, err := ParsePath(path); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Invalid resource path")
		return false
	}

	resp, err := s.conn.roundTrip(ctx, &request{Op: opResourceDef, Path: path})
	if err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("Resource definition lookup failed on server")
		return false
	}

	return resp.Defined
}

func (s *serverSession) ReadInteger(ctx context.Context, clientID, path string) (int64, error) {
	resp, err := s.conn.roundTrip(ctx, &request{Op: opRead, ClientID: clientID, Path: path})
	if err != nil {
		return 0, err
	}

	if resp.IntValue == nil {
		return 0, ErrValueMissing
	}

	return *resp.IntValue, nil
}

func (s *serverSession) WriteBoolean(ctx context.Context, clientID, path string, value bool) error {
	_, err := s.conn.roundTrip(ctx, &request{
		Op:        opWrite,
		ClientID:  clientID,
		Path:      path,
		BoolValue: value,
		WriteMode: writeModeUpdate,
	})

	return err
}

func (s *serverSession) ListClients(ctx context.Context) ([]string, error) {
	resp, err := s.conn.roundTrip(ctx, &request{Op: opListClients})
	if err != nil {
		return nil, err
	}

	return resp.Clients, nil
}
