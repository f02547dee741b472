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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/flow"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

type fakeIndicator struct {
	states []bool
}

func (f *fakeIndicator) Set(on bool) {
	f.states = append(f.states, on)
}

func remoteValues(writes []writeCall) []bool {
	values := make([]bool, 0, len(writes))
	for _, w := range writes {
		values = append(values, w.value)
	}

	return values
}

func TestPollPropagatesOnRawChange(t *testing.T) {
	client := newFakeClientSession()

	server := newFakeServerSession()
	server.reads = []readResult{
		{value: 0}, {value: 0}, {value: 1}, {value: 3}, {value: 4},
	}

	s, clock := newTestSupervisor(t, client, server)

	indicator := &fakeIndicator{}
	s.heartbeat = indicator

	err := s.poll(context.Background())
	require.ErrorIs(t, err, errReadFailed)

	// The repeated 0 is skipped; every other read is a raw change, including
	// 3 -> 4 where the parity flips back.
	assert.Equal(t, []bool{false, true, true, false}, remoteValues(server.writes))
	assert.Equal(t, []bool{false, true, true, false}, localValues(client.sets))

	require.NotNil(t, s.lastCounter)
	assert.Equal(t, int64(4), *s.lastCounter)

	// One heartbeat pulse per completed iteration.
	assert.Equal(t, []bool{false, true, false, true, false, true, false, true, false, true}, indicator.states)
	assert.Len(t, clock.sleeps, 5)
}

func localValues(sets []setCall) []bool {
	values := make([]bool, 0, len(sets))
	for _, c := range sets {
		values = append(values, c.value)
	}

	return values
}

func TestPollParityMapping(t *testing.T) {
	tests := []struct {
		name    string
		counter int64
		ledOn   bool
	}{
		{name: "even counter turns LED off", counter: 4, ledOn: false},
		{name: "odd counter turns LED on", counter: 7, ledOn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClientSession()

			server := newFakeServerSession()
			server.reads = []readResult{{value: tt.counter}}

			s, _ := newTestSupervisor(t, client, server)

			err := s.poll(context.Background())
			require.ErrorIs(t, err, errReadFailed)

			require.Len(t, server.writes, 1)
			assert.Equal(t, tt.ledOn, server.writes[0].value)
		})
	}
}

func TestPollMissingValueKeepsPolling(t *testing.T) {
	client := newFakeClientSession()

	server := newFakeServerSession()
	server.reads = []readResult{
		{err: awa.ErrValueMissing},
		{value: 2},
	}

	s, clock := newTestSupervisor(t, client, server)

	err := s.poll(context.Background())
	require.ErrorIs(t, err, errReadFailed)

	// The missing value neither propagated nor touched the cache, but the
	// iteration completed.
	require.Len(t, server.writes, 1)
	assert.False(t, server.writes[0].value)
	require.NotNil(t, s.lastCounter)
	assert.Equal(t, int64(2), *s.lastCounter)
	assert.Len(t, clock.sleeps, 2)
}

func TestPollStopsOnCancellation(t *testing.T) {
	client := newFakeClientSession()
	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.poll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, server.writes)
}

func TestPropagateRemoteFailureDoesNotBlockLocalAndNotify(t *testing.T) {
	client := newFakeClientSession()

	server := newFakeServerSession()
	server.writeErr = errors.New("write rejected")

	s, _ := newTestSupervisor(t, client, server)

	flowClient := &MockFlowClient{}
	flowClient.On("IsLoggedIn").Return(true)
	flowClient.On("UserID").Return("user-1")
	flowClient.On("NotifyUser", mock.Anything, "user-1", "text/plain", mock.Anything, flow.MessageExpiry).Return(nil).Once()
	s.flow = flowClient
	s.registered = true

	s.propagate(context.Background(), true)

	assert.Empty(t, server.writes)
	require.Len(t, client.sets, 1)
	assert.True(t, client.sets[0].value)
	flowClient.AssertExpectations(t)
}

func TestPropagateNotifyFailureDoesNotBlockWrites(t *testing.T) {
	client := newFakeClientSession()
	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	flowClient := &MockFlowClient{}
	flowClient.On("IsLoggedIn").Return(true)
	flowClient.On("UserID").Return("user-1")
	flowClient.On("NotifyUser", mock.Anything, "user-1", "text/plain", mock.Anything, flow.MessageExpiry).
		Return(errors.New("broker down")).Once()
	s.flow = flowClient
	s.registered = true

	s.propagate(context.Background(), false)

	require.Len(t, server.writes, 1)
	assert.False(t, server.writes[0].value)
	require.Len(t, client.sets, 1)
	flowClient.AssertExpectations(t)
}

func TestPropagateSkipsUndefinedRemoteResource(t *testing.T) {
	client := newFakeClientSession()

	server := newFakeServerSession()
	server.resourceDefined = false

	s, _ := newTestSupervisor(t, client, server)

	s.propagate(context.Background(), true)

	assert.Empty(t, server.writes)
	require.Len(t, client.sets, 1)
}

func TestPropagateSkipsNotifyWhenNotRegistered(t *testing.T) {
	client := newFakeClientSession()
	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	flowClient := &MockFlowClient{}
	s.flow = flowClient
	s.registered = false

	s.propagate(context.Background(), true)

	require.Len(t, server.writes, 1)
	flowClient.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPropagateSkipsNotifyWhenLoggedOut(t *testing.T) {
	client := newFakeClientSession()
	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	flowClient := &MockFlowClient{}
	flowClient.On("IsLoggedIn").Return(false)
	s.flow = flowClient
	s.registered = true

	s.propagate(context.Background(), true)

	require.Len(t, server.writes, 1)
	flowClient.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetLocalLedCreatesMissingInstance(t *testing.T) {
	client := newFakeClientSession()
	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	s.setLocalLed(context.Background(), true)

	require.Len(t, client.sets, 1)
	assert.True(t, client.sets[0].createInstance)
	assert.Equal(t, awa.ResourcePath(models.LedObjectID, 0, models.LedResourceID), client.sets[0].path)
}

func TestSetLocalLedReusesExistingInstance(t *testing.T) {
	client := newFakeClientSession()
	client.has[awa.ObjectInstancePath(models.LedObjectID, 0)] = true

	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	s.setLocalLed(context.Background(), false)

	require.Len(t, client.sets, 1)
	assert.False(t, client.sets[0].createInstance)
}

func TestFormatNotification(t *testing.T) {
	at := time.Date(2026, 1, 28, 9, 5, 3, 0, time.UTC)

	assert.Equal(t, "09:05:03 28-01-2026 LED on", formatNotification(at, true))
	assert.Equal(t, "09:05:03 28-01-2026 LED off", formatNotification(at, false))
}

func TestClientIDFor(t *testing.T) {
	client := newFakeClientSession()
	server := newFakeServerSession()

	s, _ := newTestSupervisor(t, client, server)

	assert.Equal(t, "ButtonDevice", s.clientIDFor(models.ButtonObjectID))
	assert.Equal(t, "LedDevice", s.clientIDFor(models.LedObjectID))
	assert.Empty(t, s.clientIDFor(9999))
}
