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

// Package gateway contains the session supervisor: the engine that waits for
// provisioning, registers with the cloud, mirrors the schema onto both
// device-management stores, and drives the poll-and-propagate loop with
// session recovery.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/flow"
	"github.com/neeraj2774/button-gateway/pkg/heartbeat"
	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/models"
	"github.com/neeraj2774/button-gateway/pkg/retry"
	"github.com/neeraj2774/button-gateway/pkg/schema"
)

var (
	errNoServerSession = errors.New("server session could not be established")
	errNoClientFactory = errors.New("client session factory is required")
	errNoServerFactory = errors.New("server session factory is required")
)

// state of the session supervisor.
type state int

const (
	stateConnecting state = iota
	statePolling
	stateRecovering
)

func (s state) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case statePolling:
		return "polling"
	case stateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// Deps are the collaborators injected into the supervisor. Clock defaults to
// the real clock, Heartbeat to a no-op indicator.
type Deps struct {
	NewClient awa.ClientFactory
	NewServer awa.ServerFactory
	Flow      flow.Client
	Heartbeat heartbeat.Indicator
	Clock     Clock
}

// Supervisor owns both sessions and all engine state. All of its methods run
// on a single goroutine; the session handles have exactly one writer.
type Supervisor struct {
	config Config
	logger logger.Logger
	clock  Clock

	schema  models.Schema
	definer *schema.Definer

	newClient awa.ClientFactory
	newServer awa.ServerFactory
	flow      flow.Client
	heartbeat heartbeat.Indicator

	client awa.ClientSession
	server awa.ServerSession

	state      state
	registered bool

	// lastCounter is nil until the first successful read, so the first
	// observation always counts as a change.
	lastCounter *int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a supervisor. The configuration must already be validated.
func New(config *Config, deps Deps, log logger.Logger) (*Supervisor, error) {
	if deps.NewClient == nil {
		return nil, errNoClientFactory
	}

	if deps.NewServer == nil {
		return nil, errNoServerFactory
	}

	clock := deps.Clock
	if clock == nil {
		clock = realClock{}
	}

	indicator := deps.Heartbeat
	if indicator == nil {
		indicator = heartbeat.NopIndicator{}
	}

	return &Supervisor{
		config:    *config,
		logger:    log,
		clock:     clock,
		schema:    models.DefaultSchema(),
		definer:   schema.NewDefiner(log),
		newClient: deps.NewClient,
		newServer: deps.NewServer,
		flow:      deps.Flow,
		heartbeat: indicator,
		done:      make(chan struct{}),
	}, nil
}

// Start implements the lifecycle.Service interface. It blocks until the
// context is canceled, Stop is called, or session recovery fails.
func (s *Supervisor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	defer s.teardown(ctx)

	s.logger.Info().Msg("Flow Button Gateway Application")

	s.heartbeat.Set(true)

	s.establishInitialSessions(ctx)

	if err := s.waitForProvisioning(ctx); err != nil {
		return s.ignoreCancellation(err)
	}

	s.register(ctx)
	s.defineSchemas(ctx)

	if err := s.waitForPeers(ctx); err != nil {
		return s.ignoreCancellation(err)
	}

	return s.ignoreCancellation(s.run(ctx))
}

// Stop implements the lifecycle.Service interface.
func (s *Supervisor) Stop(_ context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	return nil
}

// ignoreCancellation maps a context cancellation into a clean shutdown.
func (s *Supervisor) ignoreCancellation(err error) error {
	if errors.Is(err, context.Canceled) {
		s.logger.Info().Msg("Gateway shutting down")
		return nil
	}

	return err
}

// establishInitialSessions brings up both sessions once at startup. A failed
// local session is tolerated: the provisioning gate recreates it. A failed
// remote session is also tolerated here, the connecting state retries it
// before polling starts.
func (s *Supervisor) establishInitialSessions(ctx context.Context) {
	client, err := s.establishClient(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to establish client session")
	} else {
		s.logger.Info().Msg("Client session established")
		s.client = client
	}

	server, err := s.establishServer(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to establish server session")
	} else {
		s.logger.Info().Msg("Server session established")
		s.server = server
	}
}

func (s *Supervisor) establishClient(ctx context.Context) (awa.ClientSession, error) {
	session, err := s.newClient()
	if err != nil {
		return nil, err
	}

	if err := session.Connect(ctx); err != nil {
		session.Free()
		return nil, err
	}

	return session, nil
}

func (s *Supervisor) establishServer(ctx context.Context) (awa.ServerSession, error) {
	session, err := s.newServer()
	if err != nil {
		return nil, err
	}

	if err := session.Connect(ctx); err != nil {
		session.Free()
		return nil, err
	}

	return session, nil
}

// register performs the bounded cloud registration handshake. Exhausting the
// trials is not fatal: the gateway keeps running with notifications disabled.
func (s *Supervisor) register(ctx context.Context) {
	if s.flow == nil {
		return
	}

	err := retry.Do(ctx, s.config.RegistrationTrials, registrationBackoff, s.clock, func(ctx context.Context) error {
		return s.flow.Register(ctx)
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Device registration failed, notifications disabled")
		return
	}

	s.registered = true
}

// defineSchemas mirrors the object definitions onto both stores. A partially
// defined schema is tolerated; propagation skips what is missing.
func (s *Supervisor) defineSchemas(ctx context.Context) {
	if s.server != nil {
		s.logger.Info().Msg("Defining objects on server")

		if err := s.definer.Define(ctx, s.server, s.schema); err != nil {
			s.logger.Error().Err(err).Msg("Defining objects on server failed")
		}
	}

	if s.client != nil {
		s.logger.Info().Msg("Defining objects on client")

		if err := s.definer.Define(ctx, s.client, s.schema); err != nil {
			s.logger.Error().Err(err).Msg("Defining objects on client failed")
		}
	}
}

// run is the supervisor state machine. Connecting ensures a server session,
// polling runs until a read fails, recovering replaces the server session.
// The local session is never touched by recovery.
func (s *Supervisor) run(ctx context.Context) error {
	s.state = stateConnecting

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch s.state {
		case stateConnecting:
			if s.server == nil {
				server, err := s.establishServer(ctx)
				if err != nil {
					return fmt.Errorf("%w: %w", errNoServerSession, err)
				}

				s.logger.Info().Msg("Server session established")
				s.server = server
			}

			s.setState(statePolling)

		case statePolling:
			err := s.poll(ctx)
			if errors.Is(err, context.Canceled) {
				return err
			}

			s.logger.Error().Err(err).Msg("Polling button state failed")
			s.setState(stateRecovering)

		case stateRecovering:
			s.teardownServer(ctx)

			if err := s.clock.Sleep(ctx, time.Duration(s.config.RecoveryBackoff)); err != nil {
				return err
			}

			s.setState(stateConnecting)
		}
	}
}

func (s *Supervisor) setState(next state) {
	s.logger.Debug().
		Str("from", s.state.String()).
		Str("to", next.String()).
		Msg("Supervisor state change")

	s.state = next
}

// teardownServer disconnects and frees the server session handle. The old
// handle is gone before a new one is created; there is never an overlap.
func (s *Supervisor) teardownServer(ctx context.Context) {
	if s.server == nil {
		return
	}

	if err := s.server.Disconnect(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to disconnect server session")
	}

	s.server.Free()
	s.server = nil
}

func (s *Supervisor) teardown(ctx context.Context) {
	// Teardown still issues disconnects after the run context is canceled.
	ctx = context.WithoutCancel(ctx)

	s.heartbeat.Set(false)

	s.teardownServer(ctx)

	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Failed to disconnect client session")
		}

		s.client.Free()
		s.client = nil
	}

	if s.flow != nil {
		s.flow.Close()
	}
}
