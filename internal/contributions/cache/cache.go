// Package cache provides the read-through cache used for reference lookups
// (convenio hours by year, social-charge rates by tipo).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

// Cache stores JSON-encoded values under string keys.
//
// Writers publish committed values with Set, which always wins. Readers that
// loaded a value from the database publish it with Add, which only fills an
// absent key, so a slow reader cannot overwrite a newer committed value.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// the key was present.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Add stores value only when key is absent and reports whether it did.
	Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

func ConvenioKey(year int) string {
	return "convenio:" + strconv.Itoa(year)
}

func CargaSocialKey(tipo string) string {
	return "cargas_sociales:" + tipo
}

// Valkey is a Cache backed by a valkey (or Redis compatible) server.
type Valkey struct {
	client valkey.Client
	logger *zap.Logger
}

// NewValkey connects to the server at addr.
func NewValkey(addr string, logger *zap.Logger) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", addr, err)
	}
	return NewValkeyWithClient(client, logger), nil
}

func NewValkeyWithClient(client valkey.Client, logger *zap.Logger) *Valkey {
	return &Valkey{client: client, logger: logger.Named("cache")}
}

func (v *Valkey) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (v *Valkey) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cmd := v.client.B().Set().Key(key).Value(string(raw)).Ex(ttl).Build()
	return v.client.Do(ctx, cmd).Error()
}

func (v *Valkey) Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	cmd := v.client.B().Set().Key(key).Value(string(raw)).Nx().Ex(ttl).Build()
	err = v.client.Do(ctx, cmd).Error()
	if valkey.IsValkeyNil(err) {
		v.logger.Debug("cache key already set", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v *Valkey) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return v.client.Do(ctx, v.client.B().Del().Key(keys...).Build()).Error()
}

func (v *Valkey) Close() {
	v.client.Close()
}

// Nop is used when no cache server is configured; every lookup misses.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Add(context.Context, string, interface{}, time.Duration) (bool, error) {
	return false, nil
}
func (Nop) Delete(context.Context, ...string) error { return nil }
