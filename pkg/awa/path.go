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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errInvalidPath = errors.New("invalid resource path")

// ObjectInstancePath builds the path for an object instance, e.g. "/3311/0".
func ObjectInstancePath(objectID, instanceID int) string {
	return fmt.Sprintf("/%d/%d", objectID, instanceID)
}

// ResourcePath builds the path for a resource, e.g. "/3311/0/5850".
func ResourcePath(objectID, instanceID, resourceID int) string {
	return fmt.Sprintf("/%d/%d/%d", objectID, instanceID, resourceID)
}

// ParsePath splits a path into its numeric components. The instance and
// resource ids are -1 when the path does not carry them.
func ParsePath(path string) (objectID, instanceID, resourceID int, err error) {
	objectID, instanceID, resourceID = -1, -1, -1

	if !strings.HasPrefix(path, "/") {
		return -1, -1, -1, fmt.Errorf("%w: %q", errInvalidPath, path)
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) == 0 || len(parts) > 3 {
		return -1, -1, -1, fmt.Errorf("%w: %q", errInvalidPath, path)
	}

	ids := []*int{&objectID, &instanceID, &resourceID}

	for i, part := range parts {
		v, convErr := strconv.Atoi(part)
		if convErr != nil || v < 0 {
			return -1, -1, -1, fmt.Errorf("%w: %q", errInvalidPath, path)
		}

		*ids[i] = v
	}

	return objectID, instanceID, resourceID, nil
}
