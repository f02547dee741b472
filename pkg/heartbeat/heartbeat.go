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

// Package heartbeat toggles the gateway's liveness LED.
package heartbeat

import (
	"os/exec"

	"github.com/neeraj2774/button-gateway/pkg/logger"
)

// DefaultCommand is the helper script that drives the heartbeat LED GPIO.
const DefaultCommand = "/usr/bin/set_led.sh"

// Indicator switches a liveness output. Failures are the implementation's
// problem to log; callers never treat a pulse as fatal.
type Indicator interface {
	Set(on bool)
}

// CommandIndicator drives the LED by invoking an external command with a
// single "1" or "0" argument.
type CommandIndicator struct {
	command string
	logger  logger.Logger
}

func NewCommandIndicator(command string, log logger.Logger) *CommandIndicator {
	if command == "" {
		command = DefaultCommand
	}

	return &CommandIndicator{command: command, logger: log}
}

func (c *CommandIndicator) Set(on bool) {
	arg := "0"
	if on {
		arg = "1"
	}

	if err := exec.Command(c.command, arg).Run(); err != nil {
		c.logger.Warn().Err(err).Str("command", c.command).Msg("Setting heartbeat led failed")
	}
}

// NopIndicator discards pulses. Used in tests and when no LED is wired.
type NopIndicator struct{}

func (NopIndicator) Set(bool) {}
