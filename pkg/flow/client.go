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

// Package flow talks to the device-owner messaging cloud. Registration reads
// stored credentials and logs the gateway in as a device; notifications are
// short-lived messages addressed to the device's owner.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/neeraj2774/button-gateway/pkg/config"
	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/retry"
)

const (
	// DefaultCredentialsPath is the file the provisioning step writes the
	// cloud credentials to.
	DefaultCredentialsPath = "/etc/lwm2m/flow_access.json"

	// credentialsReadTrials bounds how long registration waits for the
	// credentials file to appear.
	credentialsReadTrials  = 5
	credentialsReadBackoff = time.Second

	// MessageExpiry is how long a notification stays deliverable.
	MessageExpiry = 20 * time.Second

	ownerLookupSubject = "flow.identity.owner"
	messageSubject     = "flow.messages.%s"

	headerContentType = "Content-Type"
	headerExpiry      = "Expiry-Seconds"
)

var (
	errNotRegistered      = errors.New("device is not registered")
	errMissingCredentials = errors.New("credentials file is incomplete")
)

// Credentials are the four stored fields required for the cloud handshake.
type Credentials struct {
	URL             string `json:"url"`
	CustomerKey     string `json:"customer_key"`
	CustomerSecret  string `json:"customer_secret"`
	RememberMeToken string `json:"remember_me_token"`
}

func (c *Credentials) Validate() error {
	if c.URL == "" || c.CustomerKey == "" || c.CustomerSecret == "" {
		return errMissingCredentials
	}

	return nil
}

// Client is the capability surface the gateway consumes.
type Client interface {
	// Register performs the one-shot login handshake using the stored
	// credentials. It may be retried by the caller; a failed registration
	// leaves the client unregistered but usable.
	Register(ctx context.Context) error

	// IsLoggedIn reports whether registration succeeded and the connection
	// is still up.
	IsLoggedIn() bool

	// NotifyUser sends a message to the given user with the given MIME type
	// and expiry.
	NotifyUser(ctx context.Context, userID, mimeType string, data []byte, expiry time.Duration) error

	// UserID returns the owner user id resolved during registration.
	UserID() string

	// Close releases the cloud connection.
	Close()
}

// conn is the slice of the NATS connection the client uses; tests substitute
// a fake.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	IsConnected() bool
	Close()
}

// connectFunc dials the messaging broker. The default uses nats.Connect.
type connectFunc func(creds *Credentials) (conn, error)

// NatsClient implements Client over a NATS connection.
type NatsClient struct {
	credsPath string
	loader    *config.Config
	sleeper   retry.Sleeper
	connect   connectFunc
	logger    logger.Logger

	nc     conn
	userID string
}

// NewClient creates an unregistered client reading credentials from credsPath
// (DefaultCredentialsPath when empty).
func NewClient(credsPath string, log logger.Logger) *NatsClient {
	if credsPath == "" {
		credsPath = DefaultCredentialsPath
	}

	return &NatsClient{
		credsPath: credsPath,
		loader:    config.NewConfig(log),
		sleeper:   retry.RealSleeper{},
		connect:   dialNats(log),
		logger:    log,
	}
}

func dialNats(log logger.Logger) connectFunc {
	return func(creds *Credentials) (conn, error) {
		opts := []nats.Option{
			nats.UserInfo(creds.CustomerKey, creds.CustomerSecret),
			nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
				log.Error().Err(err).Msg("Flow cloud connection error")
			}),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn().Err(err).Msg("Flow cloud disconnected")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info().Str("url", nc.ConnectedUrl()).Msg("Flow cloud reconnected")
			}),
		}

		if creds.RememberMeToken != "" {
			opts = append(opts, nats.Token(creds.RememberMeToken))
		}

		nc, err := nats.Connect(creds.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to flow cloud: %w", err)
		}

		return nc, nil
	}
}

// Register loads the credentials file, waiting for it to appear, then connects
// and resolves the owner user id.
func (c *NatsClient) Register(ctx context.Context) error {
	var creds Credentials

	err := retry.Do(ctx, credentialsReadTrials, credentialsReadBackoff, c.sleeper, func(ctx context.Context) error {
		if err := c.loader.LoadAndValidate(ctx, c.credsPath, &creds); err != nil {
			c.logger.Info().Err(err).Msg("Waiting for config data")
			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	nc, err := c.connect(&creds)
	if err != nil {
		return err
	}

	owner, err := nc.RequestWithContext(ctx, ownerLookupSubject, nil)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to resolve device owner: %w", err)
	}

	c.nc = nc
	c.userID = string(owner.Data)

	c.logger.Info().Str("user_id", c.userID).Msg("Device registration successful")

	return nil
}

func (c *NatsClient) IsLoggedIn() bool {
	return c.nc != nil && c.nc.IsConnected()
}

func (c *NatsClient) UserID() string {
	return c.userID
}

func (c *NatsClient) NotifyUser(_ context.Context, userID, mimeType string, data []byte, expiry time.Duration) error {
	if !c.IsLoggedIn() {
		return errNotRegistered
	}

	msg := &nats.Msg{
		Subject: fmt.Sprintf(messageSubject, userID),
		Header: nats.Header{
			headerContentType: []string{mimeType},
			headerExpiry:      []string{strconv.Itoa(int(expiry / time.Second))},
		},
		Data: data,
	}

	if err := c.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to send message to user: %w", err)
	}

	c.logger.Info().Str("user_id", userID).Msg("Message sent to user")

	return nil
}

func (c *NatsClient) Close() {
	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
	}
}
