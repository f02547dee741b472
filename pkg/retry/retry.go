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

// Package retry provides bounded retry with fixed backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errInvalidAttempts = errors.New("attempts must be positive")

// Sleeper pauses between attempts. Implementations honor context cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op up to attempts times, sleeping backoff between failed attempts.
// The first success wins; the last failure is returned when all attempts are
// exhausted. Backoff is fixed, never exponential.
func Do(ctx context.Context, attempts int, backoff time.Duration, sleeper Sleeper, op func(context.Context) error) error {
	if attempts <= 0 {
		return errInvalidAttempts
	}

	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if i < attempts-1 {
			if err := sleeper.Sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
