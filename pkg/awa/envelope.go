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
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/neeraj2774/button-gateway/pkg/models"
)

// ipcEncMode is the CBOR encoder mode for IPC envelopes. Deterministic
// encoding keeps request bytes stable for a given request.
var ipcEncMode cbor.EncMode

// ipcDecMode is the CBOR decoder mode for IPC envelopes.
var ipcDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}

	ipcEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create IPC CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}

	ipcDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create IPC CBOR decoder mode: %v", err))
	}
}

// Operation names understood by the device-management daemons.
const (
	opConnect        = "connect"
	opDisconnect     = "disconnect"
	opDefine         = "define"
	opObjectDefined  = "object_defined"
	opResourceDef    = "resource_defined"
	opGet            = "get"
	opSet            = "set"
	opRead           = "read"
	opWrite          = "write"
	opListClients    = "list_clients"

	writeModeUpdate = "update"
)

// request is a single IPC request envelope. RequestID correlates the response
// datagram with its request.
type request struct {
	RequestID string `cbor:"1,keyasint"`
	Op        string `cbor:"2,keyasint"`

	ClientID string `cbor:"3,keyasint,omitempty"`
	Path     string `cbor:"4,keyasint,omitempty"`
	ObjectID int    `cbor:"5,keyasint,omitempty"`

	Objects []models.ObjectDescriptor `cbor:"6,keyasint,omitempty"`

	BoolValue      bool   `cbor:"7,keyasint,omitempty"`
	WriteMode      string `cbor:"8,keyasint,omitempty"`
	CreateInstance bool   `cbor:"9,keyasint,omitempty"`
}

// response is a single IPC response envelope.
type response struct {
	RequestID string `cbor:"1,keyasint"`
	OK        bool   `cbor:"2,keyasint"`
	Error     string `cbor:"3,keyasint,omitempty"`

	Defined  bool     `cbor:"4,keyasint,omitempty"`
	Exists   bool     `cbor:"5,keyasint,omitempty"`
	IntValue *int64   `cbor:"6,keyasint,omitempty"`
	Clients  []string `cbor:"7,keyasint,omitempty"`
}

func encodeRequest(req *request) ([]byte, error) {
	return ipcEncMode.Marshal(req)
}

func decodeResponse(data []byte) (*response, error) {
	var resp response
	if err := ipcDecMode.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
