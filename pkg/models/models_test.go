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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalString(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"2s"`), &d))
	assert.Equal(t, 2*time.Second, time.Duration(d))
}

func TestDurationUnmarshalNanoseconds(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, time.Duration(d))
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var d Duration

	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDefaultSchema(t *testing.T) {
	schema := DefaultSchema()
	require.Len(t, schema, 2)

	button := schema[0]
	assert.Equal(t, ButtonObjectID, button.ID)
	assert.Equal(t, "ButtonDevice", button.ClientID)
	require.Len(t, button.Resources, 1)
	assert.Equal(t, ButtonResourceID, button.Resources[0].ID)
	assert.Equal(t, TypeInteger, button.Resources[0].Type)
	assert.True(t, button.Resources[0].Mandatory)

	led := schema[1]
	assert.Equal(t, LedObjectID, led.ID)
	assert.Equal(t, "LedDevice", led.ClientID)
	require.Len(t, led.Resources, 1)
	assert.Equal(t, LedResourceID, led.Resources[0].ID)
	assert.Equal(t, TypeBoolean, led.Resources[0].Type)

	// Object ids are unique across the schema.
	seen := map[int]bool{}
	for _, obj := range schema {
		assert.False(t, seen[obj.ID], "duplicate object id %d", obj.ID)
		seen[obj.ID] = true
	}
}
