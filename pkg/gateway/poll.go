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
	"errors"
	"time"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/flow"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

const (
	notificationMIMEType = "text/plain"
	ledOnText            = "on"
	ledOffText           = "off"

	// notificationTimeLayout renders "HH:MM:SS DD-MM-YYYY".
	notificationTimeLayout = "15:04:05 02-01-2006"
)

// poll is the steady-state loop: read the button counter, propagate on raw
// changes, pulse the heartbeat, repeat. It returns only on a read failure (the
// supervisor then recovers the server session) or on context cancellation.
func (s *Supervisor) poll(ctx context.Context) error {
	buttonPath := awa.ResourcePath(models.ButtonObjectID, 0, models.ButtonResourceID)
	buttonClient := s.clientIDFor(models.ButtonObjectID)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		value, err := s.server.ReadInteger(ctx, buttonClient, buttonPath)

		switch {
		case errors.Is(err, awa.ErrValueMissing):
			// The counter has no value yet. Not a transport failure; keep
			// polling without updating the cache.
		case err != nil:
			return err
		default:
			if s.lastCounter == nil || *s.lastCounter != value {
				s.propagate(ctx, value%2 != 0)

				v := value
				s.lastCounter = &v
			}
		}

		s.heartbeat.Set(false)

		if err := s.clock.Sleep(ctx, time.Duration(s.config.PollInterval)); err != nil {
			return err
		}

		s.heartbeat.Set(true)
	}
}

// propagate pushes the LED state to the remote store, the local store, and the
// owner notification channel. The three attempts are independent: a failure in
// one is logged and never blocks the others.
func (s *Supervisor) propagate(ctx context.Context, ledOn bool) {
	s.writeRemoteLed(ctx, ledOn)
	s.setLocalLed(ctx, ledOn)
	s.notifyOwner(ctx, ledOn)
}

// writeRemoteLed updates the LED resource on the remote store. The write runs
// in update mode and only against a resource the store has a definition for.
func (s *Supervisor) writeRemoteLed(ctx context.Context, ledOn bool) {
	ledPath := awa.ResourcePath(models.LedObjectID, 0, models.LedResourceID)

	if !s.server.IsResourceDefined(ctx, ledPath) {
		s.logger.Error().Str("path", ledPath).Msg("Writing to LED resource on server failed: resource not defined")
		return
	}

	if err := s.server.WriteBoolean(ctx, s.clientIDFor(models.LedObjectID), ledPath, ledOn); err != nil {
		s.logger.Error().Err(err).Msg("Writing to LED resource on server failed")
		return
	}

	s.logger.Info().Bool("led_on", ledOn).Msg("Written to server")
}

// setLocalLed sets the LED resource on the local store, creating the object
// instance first when it does not exist yet.
func (s *Supervisor) setLocalLed(ctx context.Context, ledOn bool) {
	if s.client == nil {
		s.logger.Error().Msg("Setting LED resource on client failed: no client session")
		return
	}

	instancePath := awa.ObjectInstancePath(models.LedObjectID, 0)

	exists, err := s.client.Has(ctx, instancePath)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", instancePath).Msg("LED instance lookup failed, will create")
		exists = false
	}

	ledPath := awa.ResourcePath(models.LedObjectID, 0, models.LedResourceID)

	if err := s.client.SetBoolean(ctx, ledPath, ledOn, !exists); err != nil {
		s.logger.Error().Err(err).Msg("Setting LED resource on client failed")
		return
	}

	s.logger.Info().Bool("led_on", ledOn).Msg("Set on client")
}

// notifyOwner sends the timestamped state-change message when the gateway is
// registered with the cloud.
func (s *Supervisor) notifyOwner(ctx context.Context, ledOn bool) {
	if !s.registered || s.flow == nil || !s.flow.IsLoggedIn() {
		return
	}

	message := formatNotification(s.clock.Now().UTC(), ledOn)

	err := s.flow.NotifyUser(ctx, s.flow.UserID(), notificationMIMEType, []byte(message), flow.MessageExpiry)
	if err != nil {
		s.logger.Error().Err(err).Msg("Flow message send failed")
	}
}

func formatNotification(now time.Time, ledOn bool) string {
	state := ledOffText
	if ledOn {
		state = ledOnText
	}

	return now.Format(notificationTimeLayout) + " LED " + state
}

// clientIDFor returns the endpoint name serving the given object id.
func (s *Supervisor) clientIDFor(objectID int) string {
	for _, object := range s.schema {
		if object.ID == objectID {
			return object.ClientID
		}
	}

	return ""
}
