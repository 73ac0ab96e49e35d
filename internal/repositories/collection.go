package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type decodeFunc[T any] func(raw []byte) ([]T, error)

// jsonCollection stores a whole collection as one JSON array under a single key.
type jsonCollection[T any] struct {
	name    string
	key     string
	store   KVStore
	decode  decodeFunc[T]
	logger  *zap.Logger
	metrics storeMetrics
	now     func() time.Time
}

func newJSONCollection[T any](name, key string, store KVStore, decode decodeFunc[T], logger *zap.Logger, metrics storeMetrics, now func() time.Time) *jsonCollection[T] {
	if decode == nil {
		decode = decodeJSONArray[T]
	}
	return &jsonCollection[T]{
		name:    name,
		key:     key,
		store:   store,
		decode:  decode,
		logger:  logger,
		metrics: metrics,
		now:     now,
	}
}

func (c *jsonCollection[T]) LoadAll(ctx context.Context) (items []T, err error) {
	started := time.Now()
	defer func() { c.metrics.observe(ctx, c.name, "load", started, err) }()

	raw, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, Unavailable(fmt.Sprintf("%s.load", c.name), err)
	}
	if !found || len(raw) == 0 {
		return []T{}, nil
	}

	decoded, decodeErr := c.decode(raw)
	if decodeErr != nil {
		c.quarantine(ctx, raw, decodeErr)
		return []T{}, nil
	}
	if decoded == nil {
		decoded = []T{}
	}
	return decoded, nil
}

func (c *jsonCollection[T]) SaveAll(ctx context.Context, items []T) (err error) {
	started := time.Now()
	defer func() { c.metrics.observe(ctx, c.name, "save", started, err) }()

	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%s.save: encode: %w", c.name, err)
	}
	if err := c.store.Put(ctx, c.key, payload); err != nil {
		return Unavailable(fmt.Sprintf("%s.save", c.name), err)
	}
	return nil
}

// quarantine keeps a copy of an undecodable payload next to the live key so the next
// SaveAll does not destroy the only copy.
func (c *jsonCollection[T]) quarantine(ctx context.Context, raw []byte, cause error) {
	c.metrics.markCorrupt(ctx, c.name)
	backupKey := c.key + ".corrupt." + strconv.FormatInt(c.now().Unix(), 10)
	fields := []zap.Field{
		zap.String("collection", c.name),
		zap.String("key", c.key),
		zap.String("backup_key", backupKey),
		zap.Int("bytes", len(raw)),
		zap.Error(cause),
	}
	if err := c.store.Put(ctx, backupKey, raw); err != nil {
		fields = append(fields, zap.NamedError("backup_error", err))
	}
	c.logger.Warn("storage.collection.corrupt", fields...)
}

func decodeJSONArray[T any](raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
