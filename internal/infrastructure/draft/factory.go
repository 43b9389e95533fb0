package draft

import (
	"fmt"
	"io"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store is a DraftStore that holds resources until closed
type Store interface {
	printing.DraftStore
	io.Closer
}

// NewStore builds the draft store selected by cfg.Backend
func NewStore(cfg config.DraftConfig, redisCfg config.RedisConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("draft")

	switch cfg.Backend {
	case "", "file":
		store, err := NewFileStore(cfg.Dir,
			WithFileKeyPrefix(cfg.KeyPrefix),
			WithFileLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create file draft store: %w", err)
		}
		logger.Info("Draft store ready", zap.String("backend", "file"), zap.String("dir", cfg.Dir))
		return store, nil
	case "redis":
		store, err := NewRedisStore(redisCfg,
			WithRedisKeyPrefix(cfg.KeyPrefix),
			WithRedisChannel(cfg.Channel),
			WithRedisTTL(cfg.TTL),
			WithRedisLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis draft store: %w", err)
		}
		logger.Info("Draft store ready", zap.String("backend", "redis"), zap.String("addr", redisCfg.Addr()))
		return store, nil
	case "memory":
		logger.Warn("Draft store is in-memory; drafts are lost on restart and not shared between instances")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported draft backend %q", cfg.Backend)
	}
}
