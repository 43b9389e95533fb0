package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChangeChannel is the Pub/Sub channel draft changes are relayed on
const DefaultChangeChannel = "print-draft:changes"

// changeMessage is the Pub/Sub payload. Instance lets a store skip the echo
// of its own publications; local watchers were already notified directly.
type changeMessage struct {
	Instance string               `json:"instance"`
	Change   printing.DraftChange `json:"change"`
}

// RedisStore keeps drafts in Redis under "<prefix>-<datasetID>" and relays
// changes between server instances over Pub/Sub.
type RedisStore struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	channel    string
	ttl        time.Duration
	instance   string
	logger     *zap.Logger
	hub        *hub

	cancel   context.CancelFunc
	done     chan struct{}
	closeMu  sync.Mutex
	isClosed bool
}

// RedisStoreOption configures a RedisStore
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix overrides the key prefix
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisChannel overrides the Pub/Sub channel
func WithRedisChannel(channel string) RedisStoreOption {
	return func(s *RedisStore) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithRedisTTL expires drafts that have not been saved for ttl. Zero keeps
// drafts until deleted.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger *zap.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// NewRedisStore connects to Redis and starts relaying changes
func NewRedisStore(cfg config.RedisConfig, opts ...RedisStoreOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s, err := newRedisStore(client, true, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// NewRedisStoreWithClient builds a store on an existing client. The caller
// keeps ownership of the client.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisStoreOption) (*RedisStore, error) {
	return newRedisStore(client, false, opts...)
}

func newRedisStore(client *redis.Client, owns bool, opts ...RedisStoreOption) (*RedisStore, error) {
	s := &RedisStore{
		client:     client,
		ownsClient: owns,
		prefix:     printing.DefaultDraftKeyPrefix,
		channel:    DefaultChangeChannel,
		instance:   uuid.NewString(),
		logger:     zap.NewNop(),
		hub:        newHub(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	pubsub := client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to draft channel: %w", err)
	}
	go s.relay(ctx, pubsub)

	return s, nil
}

func (s *RedisStore) key(datasetID string) string {
	return printing.DraftKey(s.prefix, datasetID)
}

// Load implements printing.DraftStore
func (s *RedisStore) Load(ctx context.Context, datasetID string) (*printing.PrintDraft, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(datasetID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return decodeDraft(datasetID, data)
}

// Save implements printing.DraftStore
func (s *RedisStore) Save(ctx context.Context, datasetID string, d *printing.PrintDraft) error {
	data, err := encodeDraft(datasetID, d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(datasetID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	s.notify(ctx, newChange(ctx, datasetID, printing.DraftSaved))
	return nil
}

// Delete implements printing.DraftStore
func (s *RedisStore) Delete(ctx context.Context, datasetID string) error {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.key(datasetID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n > 0 {
		s.notify(ctx, newChange(ctx, datasetID, printing.DraftDeleted))
	}
	return nil
}

// HasDraft implements printing.DraftStore
func (s *RedisStore) HasDraft(ctx context.Context, datasetID string) (bool, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.key(datasetID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check draft: %w", err)
	}
	return n > 0, nil
}

// Watch implements printing.DraftStore
func (s *RedisStore) Watch(ctx context.Context, datasetID string) (<-chan printing.DraftChange, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, datasetID)
}

// notify delivers a change locally and to the other instances. A failed
// publish only costs remote observers a refresh, so it is logged.
func (s *RedisStore) notify(ctx context.Context, change printing.DraftChange) {
	s.hub.publish(change)

	data, err := json.Marshal(changeMessage{Instance: s.instance, Change: change})
	if err != nil {
		s.logger.Error("Failed to marshal draft change", zap.Error(err))
		return
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		s.logger.Warn("Failed to publish draft change",
			zap.String("channel", s.channel),
			zap.String("dataset_id", change.DatasetID),
			zap.Error(err))
	}
}

func (s *RedisStore) relay(ctx context.Context, pubsub *redis.PubSub) {
	defer close(s.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("Draft change channel closed")
				return
			}
			var m changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				s.logger.Error("Failed to unmarshal draft change",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			if m.Instance == s.instance {
				continue
			}
			s.hub.publish(m.Change)
		}
	}
}

// Close stops relaying, ends every Watch channel and closes the client if
// the store created it.
func (s *RedisStore) Close() error {
	s.closeMu.Lock()
	if s.isClosed {
		s.closeMu.Unlock()
		return nil
	}
	s.isClosed = true
	s.closeMu.Unlock()

	s.cancel()
	select {
	case <-s.done:
	case <-time.After(defaultCloseTimeout):
		s.logger.Warn("Timed out waiting for draft relay to stop")
	}
	s.hub.close()

	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

const defaultCloseTimeout = 5 * time.Second

var _ printing.DraftStore = (*RedisStore)(nil)
