package storage

import (
	"context"

	"go.uber.org/zap"
)

// CleanKeysFromStorage removes keys from s. Failures are logged and never returned.
func CleanKeysFromStorage(ctx context.Context, s Store, keys []string, logger *zap.Logger) {
	if s == nil || len(keys) == 0 {
		return
	}
	if err := s.Remove(ctx, keys...); err != nil && logger != nil {
		logger.Error("storage: failed to remove keys", zap.Strings("keys", keys), zap.Error(err))
	}
}
