package jobstore

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New selects a store backend by name. "memory" needs no client;
// "redis" requires one. ttl only applies to the redis backend.
func New(backend string, client *redis.Client, ttl time.Duration) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("job store backend %q requires a redis connection", backend)
		}
		return NewRedisStore(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown job store backend: %s", backend)
	}
}
