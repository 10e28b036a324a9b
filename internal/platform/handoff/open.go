package handoff

import (
	"context"
	"fmt"

	"github.com/pujar/labbill/internal/platform/db"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	RedisURL    string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32
}

// Open connects the configured backend. On success the returned close func
// releases its connections.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), func() {}, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client), func() { client.Close() }, nil
	case BackendPostgres:
		pool, err := db.NewPool(ctx, opts.DatabaseURL, opts.MaxConns, opts.MinConns)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStoreFromPool(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown handoff backend %q", opts.Backend)
	}
}
