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

	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

// clientSession is the concrete ClientSession over the UDP IPC transport.
type clientSession struct {
	conn      *ipcConn
	connected bool
	logger    logger.Logger
}

// NewClientSession creates a session to the local daemon. The session is not
// connected until Connect is called.
func NewClientSession(address string, port int, timeout models.Duration, log logger.Logger) (ClientSession, error) {
	conn, err := dialIPC(address, port, timeoutOrDefault(timeout), log)
	if err != nil {
		return nil, err
	}

	return &clientSession{conn: conn, logger: log}, nil
}

func (s *clientSession) Connect(ctx context.Context) error {
	if s.conn.freed {
		return ErrSessionClosed
	}

	if _, err := s.conn.roundTrip(ctx, &request{Op: opConnect}); err != nil {
		return err
	}

	s.connected = true

	return nil
}

func (s *clientSession) Disconnect(ctx context.Context) error {
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

func (s *clientSession) Free() {
	s.connected = false
	s.conn.free()
}

func (s *clientSession) IsObjectDefined(ctx context.Context, objectID int) bool {
	resp, err := s.conn.roundTrip(ctx, &request{Op: opObjectDefined, ObjectID: objectID})
	if err != nil {
		s.logger.Debug().Err(err).Int("object_id", objectID).Msg("Object definition lookup failed on client")
		return false
	}

	return resp.Defined
}

func (s *clientSession) Define(ctx context.Context, objects []models.ObjectDescriptor) error {
	_, err := s.conn.roundTrip(ctx, &request{Op: opDefine, Objects: objects})
	return err
}

func (s *clientSession) Has(ctx context.Context, path string) (bool, error) {
	resp, err := s.conn.roundTrip(ctx, &request{Op: opGet, Path: path})
	if err != nil {
		return false, err
	}

	return resp.Exists, nil
}

func (s *clientSession) SetBoolean(ctx context.Context, path string, value, createInstance bool) error {
	_, err := s.conn.roundTrip(ctx, &request{
		Op:             opSet,
		Path:           path,
		BoolValue:      value,
		CreateInstance: createInstance,
	})

	return err
}
