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

// Package models holds the shared data types of the gateway: the fixed
// object/resource schema mirrored onto both device-management stores and the
// JSON configuration helpers.
package models

// ResourceType identifies the value type of a resource.
type ResourceType int

const (
	TypeInteger ResourceType = iota
	TypeBoolean
)

// AccessMode identifies how a resource may be operated on.
type AccessMode int

const (
	AccessReadWrite AccessMode = iota
)

// Well-known object, instance, and resource identifiers. These match the IPSO
// registry ids used by the constrained devices and must never change while a
// store still carries definitions for them.
const (
	ButtonObjectID   = 3200
	ButtonResourceID = 5501
	LedObjectID      = 3311
	LedResourceID    = 5850

	// FlowAccessObjectID is the provisioning marker: its instance 0 appears on
	// the local store once the gateway has been provisioned.
	FlowAccessObjectID   = 20001
	FlowObjectInstanceID = 0

	defaultMinInstances = 0
	defaultMaxInstances = 1
)

// ResourceDescriptor describes a single typed value within an object.
type ResourceDescriptor struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Type      ResourceType `json:"type"`
	Access    AccessMode   `json:"access"`
	Mandatory bool         `json:"mandatory"`
}

// ObjectDescriptor describes a group of addressable resources, together with
// the endpoint name of the constrained device expected to serve it.
type ObjectDescriptor struct {
	ID           int                  `json:"id"`
	Name         string               `json:"name"`
	ClientID     string               `json:"client_id"`
	MinInstances int                  `json:"min_instances"`
	MaxInstances int                  `json:"max_instances"`
	Resources    []ResourceDescriptor `json:"resources"`
}

// Schema is an ordered list of object descriptors. It is built once at process
// start and treated as immutable afterwards.
type Schema []ObjectDescriptor

// DefaultSchema returns the fixed two-object schema of the button gateway: a
// digital-input counter served by the button device and a light-control
// boolean served by the LED device.
func DefaultSchema() Schema {
	return Schema{
		{
			ID:           ButtonObjectID,
			Name:         "DigitalInput",
			ClientID:     "ButtonDevice",
			MinInstances: defaultMinInstances,
			MaxInstances: defaultMaxInstances,
			Resources: []ResourceDescriptor{
				{
					ID:        ButtonResourceID,
					Name:      "Counter",
					Type:      TypeInteger,
					Access:    AccessReadWrite,
					Mandatory: true,
				},
			},
		},
		{
			ID:           LedObjectID,
			Name:         "LightControl",
			ClientID:     "LedDevice",
			MinInstances: defaultMinInstances,
			MaxInstances: defaultMaxInstances,
			Resources: []ResourceDescriptor{
				{
					ID:        LedResourceID,
					Name:      "On/Off",
					Type:      TypeBoolean,
					Access:    AccessReadWrite,
					Mandatory: true,
				},
			},
		},
	}
}
