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

package heartbeat

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neeraj2774/button-gateway/pkg/logger"
)

func TestCommandIndicatorInvokesCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script helper")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "state")
	script := filepath.Join(dir, "set_led.sh")

	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > "+out+"\n"), 0o755))

	indicator := NewCommandIndicator(script, logger.NewTestLogger())

	indicator.Set(true)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(data))

	indicator.Set(false)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "0\n", string(data))
}

func TestCommandIndicatorFailureIsNotFatal(t *testing.T) {
	indicator := NewCommandIndicator("/nonexistent/set_led.sh", logger.NewTestLogger())

	// Must log and return, not panic.
	indicator.Set(true)
}

func TestNewCommandIndicatorDefault(t *testing.T) {
	indicator := NewCommandIndicator("", logger.NewTestLogger())
	assert.Equal(t, DefaultCommand, indicator.command)
}
