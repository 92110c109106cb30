// Package lifecycle drives install, activation, and cleanup of cache
// generations across deploys.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Phase is the lifecycle state of a manager instance.
type Phase string

const (
	// PhaseInstalling means the new static generation is being populated.
	PhaseInstalling Phase = "installing"

	// PhaseWaiting means install completed and the instance awaits
	// activation.
	PhaseWaiting Phase = "waiting"

	// PhaseActive means this instance controls request interception.
	PhaseActive Phase = "active"

	// PhaseRedundant means the instance was superseded by a later activate
	// cycle; no further requests are dispatched to it.
	PhaseRedundant Phase = "redundant"
)

// redisKeyActivationState holds the shared activation record.
const redisKeyActivationState = "lifecycle:activation_state"

// ActivationState is the record of which generations are active. It is
// shared across concurrently-running instances so they agree on the active
// pair.
type ActivationState struct {
	// StaticGeneration is the active static-assets generation name.
	StaticGeneration string `json:"static_generation"`

	// DynamicGeneration is the active dynamic-content generation name.
	DynamicGeneration string `json:"dynamic_generation"`

	// Version is the deploy version tag that produced this activation.
	Version string `json:"version"`

	// ActivatedAt is when the activation completed.
	ActivatedAt time.Time `json:"activated_at"`
}

// Registry persists the activation state.
type Registry interface {
	// Save records the activation state.
	Save(ctx context.Context, state ActivationState) error

	// Load returns the last recorded activation state, or nil if none
	// has been recorded yet.
	Load(ctx context.Context) (*ActivationState, error)
}

// RedisRegistry shares activation state via Redis.
type RedisRegistry struct {
	redis *redis.Client
}

// NewRedisRegistry creates a Redis-backed activation registry.
func NewRedisRegistry(redisClient *redis.Client) *RedisRegistry {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisRegistry{redis: redisClient}
}

// Save records the activation state in Redis.
func (r *RedisRegistry) Save(ctx context.Context, state ActivationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal activation state: %w", err)
	}
	if err := r.redis.Set(ctx, redisKeyActivationState, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load returns the shared activation state, or nil if none exists.
func (r *RedisRegistry) Load(ctx context.Context) (*ActivationState, error) {
	data, err := r.redis.Get(ctx, redisKeyActivationState).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var state ActivationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal activation state: %w", err)
	}
	return &state, nil
}

// MemoryRegistry keeps activation state in process memory, for the memory
// store backend and for tests.
type MemoryRegistry struct {
	state *ActivationState
}

// NewMemoryRegistry creates an in-process activation registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

// Save records the activation state.
func (r *MemoryRegistry) Save(ctx context.Context, state ActivationState) error {
	r.state = &state
	return nil
}

// Load returns the recorded activation state, or nil.
func (r *MemoryRegistry) Load(ctx context.Context) (*ActivationState, error) {
	return r.state, nil
}
