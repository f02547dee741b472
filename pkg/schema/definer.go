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

// Package schema pushes the gateway's object definitions onto a session.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/logger"
	"github.com/neeraj2774/button-gateway/pkg/models"
)

var (
	errNilSession      = errors.New("nil session")
	errBadResource     = errors.New("invalid resource descriptor")
	errPartialFailure  = errors.New("some object definitions were skipped")
	errDefineOperation = errors.New("define operation failed")
)

// Definer idempotently ensures a schema exists on a session. Safe to run twice:
// already-defined objects are skipped and an empty batch is never submitted.
type Definer struct {
	logger logger.Logger
}

func NewDefiner(log logger.Logger) *Definer {
	return &Definer{logger: log}
}

// Define checks every object in the schema against the session and submits one
// batch define for the objects still missing. A malformed object is dropped
// from the batch and reported through the returned error, but it does not stop
// the remaining objects from being defined.
func (d *Definer) Define(ctx context.Context, session awa.Session, schema models.Schema) error {
	if session == nil {
		return errNilSession
	}

	var (
		pending []models.ObjectDescriptor
		skipped int
	)

	for _, object := range schema {
		if session.IsObjectDefined(ctx, object.ID) {
			d.logger.Debug().Str("object", object.Name).Msg("Object already defined")
			continue
		}

		if err := validateObject(&object); err != nil {
			d.logger.Error().Err(err).
				Str("object", object.Name).
				Int("object_id", object.ID).
				Msg("Could not add resource definitions to object definition")

			skipped++

			continue
		}

		pending = append(pending, object)
	}

	if len(pending) > 0 {
		if err := session.Define(ctx, pending); err != nil {
			return fmt.Errorf("%w: %w", errDefineOperation, err)
		}

		d.logger.Info().Int("objects", len(pending)).Msg("Defined objects on session")
	}

	if skipped > 0 {
		return fmt.Errorf("%w: %d of %d", errPartialFailure, skipped, len(schema))
	}

	return nil
}

func validateObject(object *models.ObjectDescriptor) error {
	for i := range object.Resources {
		res := &object.Resources[i]

		if res.ID < 0 || res.Name == "" {
			return fmt.Errorf("%w: %s [%d]", errBadResource, res.Name, res.ID)
		}

		switch res.Type {
		case models.TypeInteger, models.TypeBoolean:
		default:
			return fmt.Errorf("%w: %s [%d]: unsupported type", errBadResource, res.Name, res.ID)
		}
	}

	return nil
}
