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

// Package awa provides sessions to the local and remote device-management
// daemons. A session owns exactly one UDP IPC connection; its lifecycle is
// create, connect, use, disconnect, free. A freed session must not be reused.
package awa

import (
	"context"
	"errors"

	"github.com/neeraj2774/button-gateway/pkg/models"
)

var (
	// ErrSessionClosed is returned by any operation on a freed session.
	ErrSessionClosed = errors.New("session has been freed")

	// ErrNotConnected is returned when an operation requires a connected session.
	ErrNotConnected = errors.New("session is not connected")

	// ErrValueMissing is returned by reads that completed without a value for
	// the requested path. Callers treat this differently from transport errors.
	ErrValueMissing = errors.New("no value at path")
)

// Session is the lifecycle surface shared by both session flavors.
type Session interface {
	// Connect establishes the IPC connection to the daemon.
	Connect(ctx context.Context) error

	// Disconnect tells the daemon the session is going away. The session may
	// still be freed afterwards but no further operations are valid.
	Disconnect(ctx context.Context) error

	// Free releases the underlying transport. Safe to call more than once.
	Free()

	// IsObjectDefined reports whether the daemon already has a definition for
	// the object id. Lookup failures report false.
	IsObjectDefined(ctx context.Context, objectID int) bool

	// Define submits a batch of object definitions.
	Define(ctx context.Context, objects []models.ObjectDescriptor) error
}

// ClientSession talks to the local daemon that represents this gateway as a
// device.
type ClientSession interface {
	Session

	// Has reports whether the instance or resource path exists on the store.
	Has(ctx context.Context, path string) (bool, error)

	// SetBoolean sets a boolean resource on the local store. When
	// createInstance is true the enclosing object instance is created as part
	// of the same operation.
	SetBoolean(ctx context.Context, path string, value bool, createInstance bool) error
}

// ServerSession talks to the remote daemon that manages the constrained
// devices registered with the gateway.
type ServerSession interface {
	Session

	// IsResourceDefined reports whether the resource at path has a definition
	// on the store. Lookup failures report false.
	IsResourceDefined(ctx context.Context, path string) bool

	// ReadInteger reads an integer resource from the named client.
	ReadInteger(ctx context.Context, clientID, path string) (int64, error)

	// WriteBoolean writes a boolean resource on the named client in update
	// mode: the write only succeeds against an existing, defined resource.
	WriteBoolean(ctx context.Context, clientID, path string, value bool) error

	// ListClients enumerates the endpoint names currently registered with the
	// daemon. The roster is a fresh snapshot on every call.
	ListClients(ctx context.Context) ([]string, error)
}

// ClientFactory creates a fresh client session. The provisioning gate and the
// supervisor use factories so a stale session can be replaced wholesale.
type ClientFactory func() (ClientSession, error)

// ServerFactory creates a fresh server session.
type ServerFactory func() (ServerSession, error)
