// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Run removes idle network limiters every CleanupInterval until ctx is done.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.cleanupExpired()
		}
	}
}

// cleanupExpired removes limiters that haven't been accessed for LimiterExpiryDuration.
func (l *Limiter) cleanupExpired() int {
	began := time.Now()
	now := l.timeNow()
	removed := 0

	l.networks.Range(func(key, value any) bool {
		nl := value.(*networkLimiter)

		nl.mu.Lock()
		idle := now.Sub(nl.lastAccess)
		nl.mu.Unlock()

		if idle > LimiterExpiryDuration {
			l.networks.Delete(key)

			removed++
		}

		return true
	})

	if removed > 0 {
		log.Info().
			Int("count", removed).
			Dur("dur", time.Since(began)).
			Msg("Cleaned up expired limiters")
	}

	return removed
}
