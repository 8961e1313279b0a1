// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/deckdex/core"
)

// backoff decides how often an embedding batch is sent to the provider
// before the run gives up on it. The wait doubles after every failed call.
type backoff struct {
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger
}

// embed runs call for a batch of size items until the provider returns
// usable vectors. A core.ErrValidation failure stops at once: the provider
// answered, but with vectors no amount of asking will fix.
func (b backoff) embed(ctx context.Context, size int, call func() error) error {
	if b.attempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	wait := b.baseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := call()
		switch {
		case err == nil:
			if attempt > 1 {
				logger.Info("embedding batch recovered", "items", size, "attempt", attempt)
			}
			return nil
		case errors.Is(err, core.ErrValidation):
			logger.Warn("provider returned unusable vectors", "items", size, "err", err)
			return err
		case attempt == b.attempts:
			logger.Warn("embedding batch exhausted its attempts", "items", size, "attempts", attempt, "err", err)
			return err
		}

		logger.Debug("embedding batch failed",
			"items", size,
			"attempt", attempt,
			"of", b.attempts,
			"next_try_in", wait,
			"err", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}
