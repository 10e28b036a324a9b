// Package handoff carries finalized billing records from the builder to the
// report renderer. A slot holds one complete snapshot under a key until it
// expires; writers replace the whole slot and readers never observe a
// partially written record.
package handoff

import (
	"context"
	"errors"
	"time"

	"github.com/pujar/labbill/internal/domain/billing"
)

var ErrNotFound = errors.New("handoff slot is empty")

// KeyPrefix namespaces slots in shared backends such as redis.
const KeyPrefix = "billing:handoff:"

// Backend names accepted by New.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Store is a keyed, expiring slot for billing snapshots.
type Store interface {
	Put(ctx context.Context, key string, rec billing.PatientRecord, ttl time.Duration) error
	Get(ctx context.Context, key string) (billing.PatientRecord, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
