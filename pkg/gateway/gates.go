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

package gateway

import (
	"context"
	"slices"
	"time"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

// waitForProvisioning blocks until the provisioning marker instance appears on
// the local store. Each failed check discards the client session and builds a
// fresh one; there is no overall deadline.
func (s *Supervisor) waitForProvisioning(ctx context.Context) error {
	s.logger.Info().Msg("Wait until device is provisioned")

	for {
		if s.client != nil && s.isProvisioned(ctx) {
			s.logger.Info().Msg("Gateway is provisioned")
			return nil
		}

		s.logger.Info().Msg("Waiting for provisioning")

		if s.client != nil {
			s.client.Free()
			s.client = nil
		}

		if err := s.clock.Sleep(ctx, time.Duration(s.config.ProvisioningBackoff)); err != nil {
			return err
		}

		client, err := s.establishClient(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to establish client session")
			continue
		}

		s.client = client
	}
}

// isProvisioned checks for the marker instance. A lookup failure reads as "not
// provisioned"; transient errors and genuine absence retry identically.
func (s *Supervisor) isProvisioned(ctx context.Context) bool {
	path := awa.ObjectInstancePath(models.FlowAccessObjectID, models.FlowObjectInstanceID)

	exists, err := s.client.Has(ctx, path)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("Provisioning check failed")
		return false
	}

	return exists
}

// waitForPeers blocks until every constrained device named by the schema has
// registered with the remote store, one device at a time.
func (s *Supervisor) waitForPeers(ctx context.Context) error {
	for _, object := range s.schema {
		s.logger.Info().Str("client_id", object.ClientID).Msg("Waiting for constrained device to be up")

		if err := s.waitForPeer(ctx, object.ClientID); err != nil {
			return err
		}
	}

	return nil
}

// waitForPeer polls the client roster until clientID appears. The wait is
// indefinite: the gateway has nothing useful to do without its peer device.
func (s *Supervisor) waitForPeer(ctx context.Context, clientID string) error {
	if s.peerRegistered(ctx, clientID) {
		return nil
	}

	ticker := s.clock.Ticker(time.Duration(s.config.PeerCheckInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if s.peerRegistered(ctx, clientID) {
				return nil
			}
		}
	}
}

// peerRegistered takes a fresh roster snapshot; the roster is never cached.
func (s *Supervisor) peerRegistered(ctx context.Context, clientID string) bool {
	if s.server == nil {
		return false
	}

	clients, err := s.server.ListClients(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Listing registered clients failed")
		return false
	}

	if slices.Contains(clients, clientID) {
		s.logger.Info().Str("client_id", clientID).Msg("Constrained device registered")
		return true
	}

	return false
}
