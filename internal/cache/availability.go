package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ticketi/ticketi-api/internal/domain"
)

const (
	keyPrefix        = "ticketi:availability:"
	generationPrefix = "ticketi:availability-gen:"

	minGenerationTTL = 24 * time.Hour
)

// AvailabilityCache keeps per-event availability counts in redis. The database
// stays the source of truth.
//
// Every committed ticket mutation bumps the event generation. An entry is only
// served while its generation matches the current one, so counts read before a
// mutation and written back after it are never returned.
type AvailabilityCache struct {
	client        redis.Cmdable
	ttl           time.Duration
	generationTTL time.Duration
}

type entry struct {
	domain.Availability
	Generation uint64 `json:"generation"`
}

func NewAvailabilityCache(client redis.Cmdable, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{
		client:        client,
		ttl:           ttl,
		generationTTL: max(minGenerationTTL, 2*ttl),
	}
}

func Key(eventID uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, eventID)
}

func GenerationKey(eventID uint) string {
	return fmt.Sprintf("%s%d", generationPrefix, eventID)
}

// Get returns the cached counts, the current generation of the event and
// whether a current entry was found. The generation must be handed back to
// Set along with counts read after this call.
func (c *AvailabilityCache) Get(ctx context.Context, eventID uint) (domain.Availability, uint64, bool, error) {
	values, err := c.client.MGet(ctx, Key(eventID), GenerationKey(eventID)).Result()
	if err != nil {
		return domain.Availability{}, 0, false, fmt.Errorf("c.client.MGet -> %w", err)
	}

	var generation uint64
	if raw, ok := values[1].(string); ok {
		generation, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return domain.Availability{}, 0, false, fmt.Errorf("strconv.ParseUint -> %w", err)
		}
	}

	payload, ok := values[0].(string)
	if !ok {
		return domain.Availability{}, generation, false, nil
	}

	var cached entry
	if err := json.Unmarshal([]byte(payload), &cached); err != nil {
		return domain.Availability{}, generation, false, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	if cached.Generation != generation {
		return domain.Availability{}, generation, false, nil
	}

	return cached.Availability, generation, true, nil
}

// Set stores counts tagged with the generation observed before they were read.
func (c *AvailabilityCache) Set(ctx context.Context, availability domain.Availability, generation uint64) error {
	payload, err := json.Marshal(entry{Availability: availability, Generation: generation})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err := c.client.Set(ctx, Key(availability.EventID), string(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("c.client.Set -> %w", err)
	}

	return nil
}

// Invalidate bumps the event generation, which retires the current entry and
// any write still in flight.
func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID uint) error {
	key := GenerationKey(eventID)
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("c.client.Incr -> %w", err)
	}

	if err := c.client.Expire(ctx, key, c.generationTTL).Err(); err != nil {
		return fmt.Errorf("c.client.Expire -> %w", err)
	}

	return nil
}

// Noop is used when redis is disabled. Every lookup is a miss.
type Noop struct{}

func (Noop) Get(context.Context, uint) (domain.Availability, uint64, bool, error) {
	return domain.Availability{}, 0, false, nil
}

func (Noop) Set(context.Context, domain.Availability, uint64) error {
	return nil
}

func (Noop) Invalidate(context.Context, uint) error {
	return nil
}
