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
	"fmt"
	"time"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

var errInvalidPort = fmt.Errorf("ipc ports must be positive")

const (
	defaultPollInterval        = time.Second
	defaultOperationTimeout    = 5 * time.Second
	defaultProvisioningBackoff = 2 * time.Second
	defaultPeerCheckInterval   = time.Second
	defaultRecoveryBackoff     = time.Second
	defaultRegistrationTrials  = 5
	registrationBackoff        = time.Second
)

// Config represents gateway configuration.
type Config struct {
	ListenAddr  string `json:"listen_addr"`
	ServiceName string `json:"service_name"`

	LocalAddress string `json:"local_address"`
	LocalPort    int    `json:"local_port"`

	RemoteAddress string `json:"remote_address"`
	RemotePort    int    `json:"remote_port"`

	PollInterval        models.Duration `json:"poll_interval"`
	OperationTimeout    models.Duration `json:"operation_timeout"`
	ProvisioningBackoff models.Duration `json:"provisioning_backoff"`
	PeerCheckInterval   models.Duration `json:"peer_check_interval"`
	RecoveryBackoff     models.Duration `json:"recovery_backoff"`
	RegistrationTrials  int             `json:"registration_trials"`

	CredentialsPath  string `json:"credentials_path"`
	HeartbeatCommand string `json:"heartbeat_command"`

	Logging *logger.Config `json:"logging,omitempty"`
}

// Validate implements config.Validator interface.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		c.ServiceName = "button-gateway"
	}

	if c.LocalAddress == "" {
		c.LocalAddress = awa.DefaultAddress
	}

	if c.LocalPort == 0 {
		c.LocalPort = awa.DefaultClientPort
	}

	if c.RemoteAddress == "" {
		c.RemoteAddress = awa.DefaultAddress
	}

	if c.RemotePort == 0 {
		c.RemotePort = awa.DefaultServerPort
	}

	if c.LocalPort < 0 || c.RemotePort < 0 {
		return errInvalidPort
	}

	if time.Duration(c.PollInterval) == 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if time.Duration(c.OperationTimeout) == 0 {
		c.OperationTimeout = models.Duration(defaultOperationTimeout)
	}

	if time.Duration(c.ProvisioningBackoff) == 0 {
		c.ProvisioningBackoff = models.Duration(defaultProvisioningBackoff)
	}

	if time.Duration(c.PeerCheckInterval) == 0 {
		c.PeerCheckInterval = models.Duration(defaultPeerCheckInterval)
	}

	if time.Duration(c.RecoveryBackoff) == 0 {
		c.RecoveryBackoff = models.Duration(defaultRecoveryBackoff)
	}

	if c.RegistrationTrials == 0 {
		c.RegistrationTrials = defaultRegistrationTrials
	}

	return nil
}
